package mailer

import (
	"fmt"
	"log/slog"
)

// Recipient formats a name and email into RFC 5322 address format.
// Returns "Name <email>" if name is provided, otherwise just email.
func Recipient(name, email string) string {
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}

// Email is a composed message ready for one delivery attempt.
type Email struct {
	FromName    string // Display name shown to the recipient
	FromAddress string // Envelope sender
	To          string // Single recipient address
	Subject     string
	HTML        string
}

// From returns the formatted From header value.
func (e *Email) From() string {
	return Recipient(e.FromName, e.FromAddress)
}

// Credentials authenticate the sender against the submission server.
type Credentials struct {
	Username string
	Password string
}

// String hides the password.
func (c Credentials) String() string {
	return c.Username + ":[REDACTED]"
}

// LogValue implements slog.LogValuer so the password never reaches a log sink.
func (c Credentials) LogValue() slog.Value {
	return slog.StringValue(c.String())
}
