package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testCatalog = `
posts_per_run: 3
priority_keywords: [CVE, Auth, cve]
categories:
  security:
    - CVE
    - auth
  zeta:
    - Zig build systems
  alpha:
    - Alpine images
profiles:
  security:
    keywords: [CVE, Exploit]
    devto_tag: security
    subreddit: netsec
`

func TestParse_PreservesOrder(t *testing.T) {
	c, err := Parse([]byte(testCatalog))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	got := strings.Join(c.Categories(), ",")
	if got != "security,zeta,alpha" {
		t.Errorf("Expected file order security,zeta,alpha, got %s", got)
	}

	cands := c.Candidates()
	if len(cands) != 4 {
		t.Fatalf("Expected 4 candidates, got %d", len(cands))
	}
	if cands[0].Topic != "CVE" || cands[1].Topic != "auth" || cands[2].Category != "zeta" {
		t.Errorf("Unexpected candidate order: %v", cands)
	}

	if c.PostsPerRun() != 3 {
		t.Errorf("Expected posts_per_run 3, got %d", c.PostsPerRun())
	}
	if kws := strings.Join(c.PriorityKeywords(), ","); kws != "cve,auth" {
		t.Errorf("Expected normalized keywords cve,auth, got %s", kws)
	}
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"no categories", "posts_per_run: 1\n", "no categories"},
		{"empty topics", "categories:\n  security: []\n", "has no topics"},
		{"blank topic", "categories:\n  security: [\"  \"]\n", "is empty"},
		{"duplicate category", "categories:\n  a: [x]\n  a: [y]\n", "duplicate"},
		{"not a mapping", "categories: [a, b]\n", "must be a mapping"},
		{"negative posts", "posts_per_run: -1\ncategories:\n  a: [x]\n", "negative"},
		{"unknown key", "colors: [red]\ncategories:\n  a: [x]\n", "colors"},
		{"profile for unknown category", "categories:\n  a: [x]\nprofiles:\n  b: {keywords: [y]}\n", "unknown category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestParse_Defaults(t *testing.T) {
	c, err := Parse([]byte("categories:\n  a: [x]\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if c.PostsPerRun() != 1 {
		t.Errorf("Expected default posts_per_run 1, got %d", c.PostsPerRun())
	}
	if len(c.PriorityKeywords()) != len(DefaultPriorityKeywords) {
		t.Errorf("Expected default priority keywords, got %v", c.PriorityKeywords())
	}
}

func TestDefault(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Embedded catalog should parse: %v", err)
	}
	if !c.Has("security") {
		t.Error("Expected embedded catalog to contain the security category")
	}
	for _, cand := range c.Candidates() {
		if cand.Topic == "" || !c.Has(cand.Category) {
			t.Errorf("Invalid candidate %+v", cand)
		}
	}
	for _, name := range c.Categories() {
		if _, ok := c.Profile(name); !ok {
			t.Errorf("Expected a profile for %s", name)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topics.yaml")
	if err := os.WriteFile(path, []byte(testCatalog), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(c.Topics("security")) != 2 {
		t.Errorf("Expected 2 security topics, got %v", c.Topics("security"))
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing catalog file")
	}

	if c, err := Load(""); err != nil || c == nil {
		t.Errorf("Expected empty path to load the default catalog, got %v", err)
	}
}

func TestFilter(t *testing.T) {
	c, err := Parse([]byte(testCatalog))
	if err != nil {
		t.Fatal(err)
	}

	filtered, err := c.Filter("security")
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	if got := filtered.Categories(); len(got) != 1 || got[0] != "security" {
		t.Errorf("Expected only security, got %v", got)
	}
	if p, ok := filtered.Profile("security"); !ok || p.Subreddit != "netsec" {
		t.Errorf("Expected filtered catalog to keep the profile, got %+v", p)
	}

	_, err = c.Filter("gardening")
	if !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("Expected ErrUnknownCategory, got %v", err)
	}
}

func TestLookupAndProfile(t *testing.T) {
	c, err := Parse([]byte(testCatalog))
	if err != nil {
		t.Fatal(err)
	}

	cand, ok := c.Lookup("  zig BUILD systems ")
	if !ok || cand.Category != "zeta" || cand.Topic != "Zig build systems" {
		t.Errorf("Lookup returned %+v, %v", cand, ok)
	}
	if _, ok := c.Lookup("nothing"); ok {
		t.Error("Expected lookup miss")
	}

	p, ok := c.Profile("security")
	if !ok || strings.Join(p.Keywords, ",") != "cve,exploit" || p.Category != "security" {
		t.Errorf("Unexpected explicit profile %+v", p)
	}

	derived, ok := c.Profile("zeta")
	if !ok || strings.Join(derived.Keywords, ",") != "build,systems" {
		t.Errorf("Unexpected derived profile %+v", derived)
	}

	if _, ok := c.Profile("missing"); ok {
		t.Error("Expected no profile for unknown category")
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	c, err := Parse([]byte(testCatalog))
	if err != nil {
		t.Fatal(err)
	}
	topics := c.Topics("security")
	topics[0] = "mutated"
	if c.Topics("security")[0] != "CVE" {
		t.Error("Catalog should not be mutable through Topics()")
	}
}
