// Package content renders the static documents shown in storefront dialogs.
package content

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"
)

//go:embed terms.md
var defaultTerms []byte

const defaultOKLabel = "E kuptova"

// ErrEmptyDocument indicates a document has no body.
var ErrEmptyDocument = errors.New("content: document body is empty")

// Document is a rendered markdown document ready for templates.
type Document struct {
	Title         string
	Version       string
	EffectiveDate time.Time
	OKLabel       string
	HTML          template.HTML
}

type frontMatter struct {
	Title         string `yaml:"title"`
	Version       string `yaml:"version"`
	EffectiveDate string `yaml:"effective_date"`
	OKLabel       string `yaml:"ok_label"`
}

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	policy   = newDocumentPolicy()
)

func newDocumentPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AllowURLSchemes("mailto", "tel", "https")
	return p
}

// DefaultTerms renders the bundled terms of service.
func DefaultTerms() (Document, error) {
	return Render(defaultTerms)
}

// LoadTerms renders the terms file at path. An empty path selects the bundled document.
func LoadTerms(path string) (Document, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultTerms()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Document{}, fmt.Errorf("content: terms file %s: %w", path, err)
		}
		return Document{}, fmt.Errorf("content: read %s: %w", path, err)
	}
	return Render(raw)
}

// Render parses optional YAML front matter, converts the markdown body to HTML and
// sanitizes the result.
func Render(raw []byte) (Document, error) {
	fm, body := splitFrontMatter(string(raw))
	front := frontMatter{}
	if strings.TrimSpace(fm) != "" {
		if err := yaml.Unmarshal([]byte(fm), &front); err != nil {
			return Document{}, fmt.Errorf("content: parse front matter: %w", err)
		}
	}
	if strings.TrimSpace(body) == "" {
		return Document{}, ErrEmptyDocument
	}

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(body), &buf); err != nil {
		return Document{}, fmt.Errorf("content: render markdown: %w", err)
	}

	doc := Document{
		Title:         strings.TrimSpace(front.Title),
		Version:       strings.TrimSpace(front.Version),
		EffectiveDate: parseDate(front.EffectiveDate),
		OKLabel:       strings.TrimSpace(front.OKLabel),
		// The policy output is safe to embed.
		HTML: template.HTML(policy.SanitizeBytes(buf.Bytes())),
	}
	if doc.OKLabel == "" {
		doc.OKLabel = defaultOKLabel
	}
	return doc, nil
}

func splitFrontMatter(input string) (string, string) {
	input = strings.TrimLeft(input, "\ufeff")
	lines := strings.Split(input, "\n")
	if strings.TrimSpace(lines[0]) != "---" {
		return "", input
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			fm := strings.Join(lines[1:i], "\n")
			body := strings.Join(lines[i+1:], "\n")
			return fm, strings.TrimLeft(body, "\n\r")
		}
	}
	return "", input
}

func parseDate(v string) time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}
