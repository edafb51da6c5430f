package report

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

var (
	ErrUnsupportedFormat = errors.New("report: unsupported report format")
	ErrEncode            = errors.New("report: failed to encode report")
	ErrWrite             = errors.New("report: failed to write report")
	ErrInvalidConfig     = errors.New("report: invalid configuration")
	ErrUploadFailed      = errors.New("report: upload failed")
	ErrAccessDenied      = errors.New("report: access denied")
)

// wrapS3Error maps S3 API errors onto the package sentinels.
// The cause is formatted with %v; match with errors.Is on the sentinels.
func wrapS3Error(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "Forbidden", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return fmt.Errorf("%w: %v", ErrAccessDenied, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrUploadFailed, err)
}
