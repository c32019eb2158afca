// Package frontmatter implements the metadata header shared by generated
// output and stored documents:
//
//	---
//	title: "..."
//	date: 2026-10-18
//	excerpt: "..."
//	tags: [a, b]
//	featured: false
//	---
//
//	body
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

var (
	// ErrNoHeader means the text does not open with a --- delimited header.
	ErrNoHeader = errors.New("missing metadata header")
	// ErrUnterminated means the opening delimiter has no closing partner.
	ErrUnterminated = errors.New("unterminated metadata header")
	// ErrNoTitle means the header parsed but carries no title.
	ErrNoTitle = errors.New("metadata header has no title")
)

// Header is the metadata block at the top of a document.
type Header struct {
	Title    string   `yaml:"title"`
	Date     string   `yaml:"date"`
	Excerpt  string   `yaml:"excerpt,omitempty"`
	Tags     []string `yaml:"tags"`
	Featured bool     `yaml:"featured"`
}

// ParsedDate returns the header date, or the zero time when it is absent.
func (h Header) ParsedDate() (time.Time, error) {
	if strings.TrimSpace(h.Date) == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse("2006-01-02", strings.TrimSpace(h.Date))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", h.Date, err)
	}
	return d, nil
}

// Parse splits text into header and body and decodes the header. A title is
// required; other fields are optional.
func Parse(text string) (Header, string, error) {
	raw, body, err := Split(text)
	if err != nil {
		return Header{}, "", err
	}

	var header Header
	if err := yaml.Unmarshal(raw, &header); err != nil {
		return Header{}, "", fmt.Errorf("decode metadata header: %w", err)
	}
	header.Title = strings.TrimSpace(header.Title)
	if header.Title == "" {
		return Header{}, "", ErrNoTitle
	}
	return header, body, nil
}

// Split returns the raw YAML between the delimiters and the body after them.
// A single code fence wrapping the whole text is removed first.
func Split(text string) ([]byte, string, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = stripFence(strings.TrimSpace(text))

	lines := strings.Split(text, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != delimiter {
		return nil, "", ErrNoHeader
	}

	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == delimiter {
			raw := strings.Join(lines[1:i], "\n")
			body := strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
			return []byte(raw), body, nil
		}
	}
	return nil, "", ErrUnterminated
}

// stripFence removes a ```lang ... ``` wrapper around the whole text.
func stripFence(text string) string {
	if !strings.HasPrefix(text, "```") || !strings.HasSuffix(text, "```") || len(text) < 6 {
		return text
	}
	nl := strings.Index(text, "\n")
	if nl < 0 {
		return text
	}
	return strings.TrimSpace(text[nl+1 : len(text)-3])
}

// Render produces a document: header, blank line, body, trailing newline.
func Render(header Header, body string) ([]byte, error) {
	if header.Tags == nil {
		header.Tags = []string{}
	}

	var buf bytes.Buffer
	buf.WriteString(delimiter + "\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(header); err != nil {
		return nil, fmt.Errorf("encode metadata header: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode metadata header: %w", err)
	}

	buf.WriteString(delimiter + "\n\n")
	buf.WriteString(strings.TrimSpace(body))
	buf.WriteString("\n")
	return buf.Bytes(), nil
}
