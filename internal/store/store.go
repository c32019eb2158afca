// Package store keeps generated documents as Markdown files in one directory.
// Files are named <YYYY-MM-DD>-<slug><ext> and are never overwritten.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"trendpress/internal/config"
	"trendpress/internal/core"
	"trendpress/internal/frontmatter"
	"trendpress/internal/logger"

	"github.com/rs/zerolog"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrExists is returned by Write when the target file is already present.
var ErrExists = errors.New("document already exists")

const maxSlugLen = 80

// Store reads and appends documents under a single directory.
type Store struct {
	dir     string
	ext     string
	pattern *regexp.Regexp
	log     zerolog.Logger
}

// NewStore creates a store rooted at dir using the file extension ext.
func NewStore(dir, ext string) *Store {
	if ext == "" {
		ext = ".md"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return &Store{
		dir:     dir,
		ext:     ext,
		pattern: regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})-(.+)` + regexp.QuoteMeta(ext) + `$`),
		log:     logger.Get(),
	}
}

// FromConfig creates a store from the output configuration.
func FromConfig(cfg config.Output) *Store {
	return NewStore(cfg.Directory, cfg.Extension)
}

// WithLogger replaces the store's logger.
func (s *Store) WithLogger(log zerolog.Logger) *Store {
	s.log = log
	return s
}

// Dir is the directory documents live in.
func (s *Store) Dir() string {
	return s.dir
}

// Filename is the file name a document would be written to.
func (s *Store) Filename(doc core.GeneratedDocument) string {
	return doc.Date + "-" + Slugify(doc.Title) + s.ext
}

// Write persists doc and returns the file name it was written to. An existing
// file with the same name is left untouched and ErrExists is returned.
func (s *Store) Write(doc core.GeneratedDocument) (string, error) {
	if err := doc.Validate(); err != nil {
		return "", err
	}

	content, err := frontmatter.Render(frontmatter.Header{
		Title:    doc.Title,
		Date:     doc.Date,
		Excerpt:  doc.Excerpt,
		Tags:     doc.Tags,
		Featured: doc.Featured,
	}, doc.Body)
	if err != nil {
		return "", fmt.Errorf("failed to render document: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	name := s.Filename(doc)
	path := filepath.Join(s.dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrExists, name)
		}
		return "", fmt.Errorf("failed to create %s: %w", name, err)
	}

	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", name, err)
	}

	s.log.Info().Str("file", name).Str("title", doc.Title).Msg("Document written")
	return name, nil
}

// Scan reads the header of every document in the directory. Files without a
// valid header are skipped with a warning. A missing directory is empty.
func (s *Store) Scan() ([]core.ExistingDocumentRecord, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []core.ExistingDocumentRecord{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", s.dir, err)
	}

	records := make([]core.ExistingDocumentRecord, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := s.pattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			s.log.Warn().Err(err).Str("file", entry.Name()).Msg("Skipping unreadable document")
			continue
		}
		header, _, err := frontmatter.Parse(string(data))
		if err != nil {
			s.log.Warn().Err(err).Str("file", entry.Name()).Msg("Skipping document without a valid header")
			continue
		}

		date := m[1]
		if _, err := header.ParsedDate(); err == nil && header.Date != "" {
			date = header.Date
		}
		records = append(records, core.ExistingDocumentRecord{
			Date:     date,
			Slug:     m[2],
			Title:    header.Title,
			FilePath: path,
		})
	}
	return records, nil
}

// Slugify turns a title into a lowercase ASCII file name fragment.
func Slugify(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, title)
	if err != nil {
		plain = title
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(plain) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "-")
	}
	if slug == "" {
		return "untitled"
	}
	return slug
}
