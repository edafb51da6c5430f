package mailer

import "errors"

var (
	// ErrTemplateNotFound indicates the body template could not be read.
	ErrTemplateNotFound = errors.New("error loading HTML file")

	// ErrRenderFailed indicates template conversion failed.
	ErrRenderFailed = errors.New("failed to render template")

	// ErrInvalidFrontmatter indicates invalid YAML frontmatter.
	ErrInvalidFrontmatter = errors.New("invalid frontmatter")
)
