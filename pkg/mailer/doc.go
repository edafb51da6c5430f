// Package mailer composes per-recipient messages and defines the delivery
// capability used by the dispatch engine.
//
// # Bodies
//
// A body template is a UTF-8 file referenced by the contact sheet. If it
// contains the placeholders {sal} or {signature}, both are replaced with the
// row's salutation and signature; a template with neither gets a signature
// block appended instead:
//
//	r := mailer.NewOSRenderer("templates")
//	body, err := r.Render("offer.html", "Jane", "Bob")
//
// Templates ending in .md are Markdown. An optional YAML frontmatter block is
// stripped and the rest is converted to HTML with goldmark before the
// placeholders are applied.
//
// # Delivery
//
// [Transport] is the one-attempt delivery capability. The SMTP
// implementation lives in the smtp subpackage. Sender credentials travel in
// [Credentials], which redacts the password when printed or logged.
package mailer
