// Package catalog loads the curated topic catalog: category names mapped to
// ordered topic lists, the priority keywords used for scoring, and the
// per-category source profiles. A Catalog is immutable once loaded.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"trendpress/internal/core"

	"gopkg.in/yaml.v3"
)

//go:embed default_topics.yaml
var defaultCatalog []byte

// ErrUnknownCategory is returned when a category is not in the catalog.
var ErrUnknownCategory = errors.New("unknown category")

// DefaultPriorityKeywords is used when the catalog file lists none.
var DefaultPriorityKeywords = []string{"ai", "llm", "rust", "go", "security", "kubernetes", "open source"}

// Category is one catalog key with its ordered topics.
type Category struct {
	Name   string
	Topics []string
}

// Profile configures category-scoped trend fetching and keyword ranking.
type Profile struct {
	Category    string   `yaml:"-"`
	Keywords    []string `yaml:"keywords"`
	DevToTag    string   `yaml:"devto_tag"`
	Subreddit   string   `yaml:"subreddit"`
	GitHubTopic string   `yaml:"github_topic"`
}

// Catalog is the static universe of topics the pipeline may write about.
type Catalog struct {
	postsPerRun      int
	priorityKeywords []string
	categories       []Category
	profiles         map[string]Profile
}

type catalogFile struct {
	PostsPerRun      int                `yaml:"posts_per_run"`
	PriorityKeywords []string           `yaml:"priority_keywords"`
	Categories       yaml.Node          `yaml:"categories"`
	Profiles         map[string]Profile `yaml:"profiles"`
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog file. An empty path selects the embedded default.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates catalog YAML. Unknown top-level keys are errors.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	categories, err := decodeCategories(&file.Categories)
	if err != nil {
		return nil, err
	}

	c := &Catalog{
		postsPerRun: file.PostsPerRun,
		categories:  categories,
		profiles:    make(map[string]Profile, len(file.Profiles)),
	}

	if c.postsPerRun < 0 {
		return nil, fmt.Errorf("posts_per_run cannot be negative, got %d", c.postsPerRun)
	}
	if c.postsPerRun == 0 {
		c.postsPerRun = 1
	}

	c.priorityKeywords = normalizeKeywords(file.PriorityKeywords)
	if len(c.priorityKeywords) == 0 {
		c.priorityKeywords = normalizeKeywords(DefaultPriorityKeywords)
	}

	for name, profile := range file.Profiles {
		if !c.Has(name) {
			return nil, fmt.Errorf("profile %q: %w", name, ErrUnknownCategory)
		}
		profile.Category = name
		profile.Keywords = normalizeKeywords(profile.Keywords)
		c.profiles[name] = profile
	}

	return c, nil
}

// decodeCategories walks the mapping node directly so file order survives.
func decodeCategories(node *yaml.Node) ([]Category, error) {
	if node.Kind == 0 {
		return nil, errors.New("catalog has no categories")
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("categories must be a mapping of name to topic list (line %d)", node.Line)
	}
	if len(node.Content) == 0 {
		return nil, errors.New("catalog has no categories")
	}

	seen := make(map[string]bool)
	categories := make([]Category, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]
		name := strings.TrimSpace(keyNode.Value)
		if name == "" {
			return nil, fmt.Errorf("empty category name (line %d)", keyNode.Line)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate category %q (line %d)", name, keyNode.Line)
		}
		seen[name] = true

		var topics []string
		if err := valueNode.Decode(&topics); err != nil {
			return nil, fmt.Errorf("category %q: topics must be a list of strings: %w", name, err)
		}
		if len(topics) == 0 {
			return nil, fmt.Errorf("category %q has no topics", name)
		}
		for j, topic := range topics {
			topics[j] = strings.TrimSpace(topic)
			if topics[j] == "" {
				return nil, fmt.Errorf("category %q: topic %d is empty", name, j+1)
			}
		}

		categories = append(categories, Category{Name: name, Topics: topics})
	}
	return categories, nil
}

func normalizeKeywords(keywords []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
	}
	return out
}

// PostsPerRun is the default batch size.
func (c *Catalog) PostsPerRun() int {
	return c.postsPerRun
}

// PriorityKeywords returns the lowercase scoring keywords.
func (c *Catalog) PriorityKeywords() []string {
	return append([]string(nil), c.priorityKeywords...)
}

// Categories returns category names in file order.
func (c *Catalog) Categories() []string {
	names := make([]string, len(c.categories))
	for i, cat := range c.categories {
		names[i] = cat.Name
	}
	return names
}

// Has reports whether category is a catalog key.
func (c *Catalog) Has(category string) bool {
	for _, cat := range c.categories {
		if cat.Name == category {
			return true
		}
	}
	return false
}

// Topics returns the topics of one category, or nil when it is unknown.
func (c *Catalog) Topics(category string) []string {
	for _, cat := range c.categories {
		if cat.Name == category {
			return append([]string(nil), cat.Topics...)
		}
	}
	return nil
}

// Candidates flattens the catalog in category order, then topic order.
func (c *Catalog) Candidates() []core.TopicCandidate {
	var out []core.TopicCandidate
	for _, cat := range c.categories {
		for _, topic := range cat.Topics {
			out = append(out, core.TopicCandidate{Category: cat.Name, Topic: topic})
		}
	}
	return out
}

// Filter returns a catalog restricted to a single category.
func (c *Catalog) Filter(category string) (*Catalog, error) {
	for _, cat := range c.categories {
		if cat.Name != category {
			continue
		}
		filtered := &Catalog{
			postsPerRun:      c.postsPerRun,
			priorityKeywords: c.priorityKeywords,
			categories:       []Category{{Name: cat.Name, Topics: append([]string(nil), cat.Topics...)}},
			profiles:         make(map[string]Profile),
		}
		if p, ok := c.profiles[category]; ok {
			filtered.profiles[category] = p
		}
		return filtered, nil
	}
	return nil, fmt.Errorf("%w %q (known: %s)", ErrUnknownCategory, category, strings.Join(c.Categories(), ", "))
}

// Lookup finds a topic by case-insensitive match across all categories.
func (c *Catalog) Lookup(topic string) (core.TopicCandidate, bool) {
	needle := strings.TrimSpace(topic)
	for _, cand := range c.Candidates() {
		if strings.EqualFold(cand.Topic, needle) {
			return cand, true
		}
	}
	return core.TopicCandidate{}, false
}

// Profile returns the source profile for a category. Categories without an
// explicit profile get one whose keywords are the words of their topics.
func (c *Catalog) Profile(category string) (Profile, bool) {
	if p, ok := c.profiles[category]; ok {
		p.Keywords = append([]string(nil), p.Keywords...)
		return p, true
	}
	topics := c.Topics(category)
	if topics == nil {
		return Profile{}, false
	}
	var words []string
	for _, topic := range topics {
		for _, w := range strings.Fields(topic) {
			if len(w) > 3 {
				words = append(words, w)
			}
		}
	}
	return Profile{Category: category, Keywords: normalizeKeywords(words)}, true
}
