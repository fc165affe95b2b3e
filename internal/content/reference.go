package content

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed default_reference.yaml
var defaultReferenceYAML []byte

// Article is one entry of the cybersecurity information center.
type Article struct {
	Slug     string   `yaml:"slug" json:"slug"`
	Title    string   `yaml:"title" json:"title"`
	Category string   `yaml:"category" json:"category"`
	Summary  string   `yaml:"summary" json:"summary"`
	Body     string   `yaml:"body" json:"body"`
	Related  []string `yaml:"related,omitempty" json:"related,omitempty"`
}

// Library holds the reference articles, keyed by slug.
type Library struct {
	articles map[string]Article
	ordered  []Article
}

type packFile struct {
	Articles []Article `yaml:"articles"`
}

// Load reads a reference pack from path, falling back to the embedded
// default pack when path is empty or missing.
func Load(path string) (*Library, error) {
	data := defaultReferenceYAML
	if path != "" {
		fileData, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		if err == nil {
			data = fileData
		}
	}

	var pack packFile
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("parse reference pack: %w", err)
	}

	lib := &Library{articles: make(map[string]Article, len(pack.Articles))}
	for _, article := range pack.Articles {
		if article.Slug == "" || article.Title == "" {
			return nil, fmt.Errorf("reference article missing slug or title: %+v", article)
		}
		if _, dup := lib.articles[article.Slug]; dup {
			return nil, fmt.Errorf("duplicate reference slug %q", article.Slug)
		}
		lib.articles[article.Slug] = article
	}

	lib.ordered = append(lib.ordered, pack.Articles...)
	sort.Slice(lib.ordered, func(i, j int) bool {
		if lib.ordered[i].Category != lib.ordered[j].Category {
			return lib.ordered[i].Category < lib.ordered[j].Category
		}
		return lib.ordered[i].Title < lib.ordered[j].Title
	})
	return lib, nil
}

// List returns every article ordered by category then title.
func (l *Library) List() []Article {
	return append([]Article(nil), l.ordered...)
}

// Get returns the article for slug.
func (l *Library) Get(slug string) (Article, bool) {
	a, ok := l.articles[slug]
	return a, ok
}

// Categories returns the distinct categories in sorted order.
func (l *Library) Categories() []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, a := range l.ordered {
		if _, dup := seen[a.Category]; dup {
			continue
		}
		seen[a.Category] = struct{}{}
		out = append(out, a.Category)
	}
	sort.Strings(out)
	return out
}
