package mailer

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Placeholders recognised in body templates.
const (
	PlaceholderSalutation = "{sal}"
	PlaceholderSignature  = "{signature}"
)

// signatureBlock is appended to templates without placeholders.
const signatureBlock = "<br><br>Thanks & Regards,<br>"

// Renderer produces message bodies from template files.
// Files ending in .md are converted from Markdown to HTML first and may
// start with a YAML frontmatter block, which is stripped.
// Rendered output is never cached: every call reads the file again.
type Renderer struct {
	fs fs.FS
	md goldmark.Markdown
}

// NewRenderer creates a renderer reading templates from filesystem.
func NewRenderer(filesystem fs.FS) *Renderer {
	return &Renderer{
		fs: filesystem,
		md: goldmark.New(
			goldmark.WithExtensions(extension.Table, extension.Linkify),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

// NewOSRenderer creates a renderer reading from the local filesystem.
// Relative template paths are resolved against baseDir.
func NewOSRenderer(baseDir string) *Renderer {
	return NewRenderer(osFS{base: baseDir})
}

// Render loads the template at path and fills in salutation and signature.
// If the template contains {sal} or {signature}, both are substituted;
// otherwise a "Thanks & Regards" block with the signature is appended.
func (r *Renderer) Render(path, salutation, signature string) (string, error) {
	content, err := fs.ReadFile(r.fs, path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrTemplateNotFound, path, err)
	}

	if isMarkdown(path) {
		content, err = r.markdown(content)
		if err != nil {
			return "", err
		}
	}

	return substitute(string(content), salutation, signature), nil
}

func (r *Renderer) markdown(content []byte) ([]byte, error) {
	_, body, err := splitFrontmatter(content)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := r.md.Convert(body, &out); err != nil {
		return nil, fmt.Errorf("%w: failed to convert markdown: %v", ErrRenderFailed, err)
	}
	return out.Bytes(), nil
}

// RenderBody renders a template from the local filesystem.
func RenderBody(path, salutation, signature string) (string, error) {
	return NewOSRenderer("").Render(path, salutation, signature)
}

func substitute(content, salutation, signature string) string {
	if strings.Contains(content, PlaceholderSalutation) || strings.Contains(content, PlaceholderSignature) {
		content = strings.ReplaceAll(content, PlaceholderSalutation, salutation)
		return strings.ReplaceAll(content, PlaceholderSignature, signature)
	}
	return content + signatureBlock + signature
}

func isMarkdown(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".md" || ext == ".markdown"
}

// osFS opens paths as given by the contact sheet: absolute paths as-is,
// relative paths under base.
type osFS struct {
	base string
}

func (f osFS) Open(name string) (fs.File, error) {
	if !filepath.IsAbs(name) && f.base != "" {
		name = filepath.Join(f.base, name)
	}
	return os.Open(name)
}
