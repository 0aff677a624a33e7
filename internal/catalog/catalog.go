// Package catalog holds the read-only business catalog: the services the
// studio offers with their per-language names, keywords, prices and hours.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/soyeahso/frontdesk/internal/domain"
)

//go:embed default.yaml
var defaultCatalog []byte

// Service is one bookable offering.
type Service struct {
	ID              string                       `yaml:"id" json:"id"`
	Names           map[domain.Language]string   `yaml:"names" json:"names"`
	Keywords        map[domain.Language][]string `yaml:"keywords" json:"keywords"`
	Price           int                          `yaml:"price" json:"price"` // whole currency units
	DurationMinutes int                          `yaml:"durationMinutes,omitempty" json:"durationMinutes,omitempty"`
	Inactive        bool                         `yaml:"inactive,omitempty" json:"inactive,omitempty"`
}

// Name returns the service name in lang, falling back to English.
func (s Service) Name(lang domain.Language) string {
	if n := s.Names[lang]; n != "" {
		return n
	}
	if n := s.Names[domain.LanguageEnglish]; n != "" {
		return n
	}
	return s.ID
}

// Catalog is the business's static configuration data.
type Catalog struct {
	Business string                     `yaml:"business" json:"business"`
	Currency string                     `yaml:"currency" json:"currency"`
	Hours    map[domain.Language]string `yaml:"hours" json:"hours"`
	Services []Service                  `yaml:"services" json:"services"`
}

// Default returns the embedded studio catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded default is invalid: %v", err))
	}
	return c
}

// Load reads a catalog from a YAML file. An empty path yields the default.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.normalize()
	return &c, nil
}

// Validate checks IDs are present and unique and every service has an English name.
func (c *Catalog) Validate() error {
	seen := make(map[string]bool, len(c.Services))
	for i, s := range c.Services {
		if s.ID == "" {
			return fmt.Errorf("catalog: services[%d]: id is required", i)
		}
		if seen[s.ID] {
			return fmt.Errorf("catalog: duplicate service id %q", s.ID)
		}
		seen[s.ID] = true
		if s.Names[domain.LanguageEnglish] == "" {
			return fmt.Errorf("catalog: service %q: English name is required", s.ID)
		}
		if s.Price < 0 {
			return fmt.Errorf("catalog: service %q: negative price", s.ID)
		}
		for lang := range s.Names {
			if !lang.Valid() {
				return fmt.Errorf("catalog: service %q: unknown language %q", s.ID, lang)
			}
		}
	}
	return nil
}

// normalize lower-cases keywords once so matching never has to.
func (c *Catalog) normalize() {
	for i := range c.Services {
		for lang, kws := range c.Services[i].Keywords {
			for j, kw := range kws {
				kws[j] = strings.ToLower(strings.TrimSpace(kw))
			}
			c.Services[i].Keywords[lang] = kws
		}
	}
}

// Active returns the services open for booking, in declaration order.
func (c *Catalog) Active() []Service {
	out := make([]Service, 0, len(c.Services))
	for _, s := range c.Services {
		if !s.Inactive {
			out = append(out, s)
		}
	}
	return out
}

// Lookup returns the active service with the given ID.
func (c *Catalog) Lookup(id string) (Service, bool) {
	for _, s := range c.Services {
		if s.ID == id && !s.Inactive {
			return s, true
		}
	}
	return Service{}, false
}

// Match finds the first active service whose keywords, name or ID occur in
// the utterance. Keywords in lang are tried before the other languages.
func (c *Catalog) Match(utterance string, lang domain.Language) (Service, bool) {
	text := strings.ToLower(utterance)
	if strings.TrimSpace(text) == "" {
		return Service{}, false
	}

	order := make([]domain.Language, 0, len(domain.Languages))
	if lang.Valid() {
		order = append(order, lang)
	}
	for _, l := range domain.Languages {
		if l != lang {
			order = append(order, l)
		}
	}

	active := c.Active()
	for _, l := range order {
		for _, s := range active {
			for _, kw := range s.Keywords[l] {
				if kw != "" && strings.Contains(text, kw) {
					return s, true
				}
			}
			if n := strings.ToLower(s.Names[l]); n != "" && strings.Contains(text, n) {
				return s, true
			}
		}
	}
	for _, s := range active {
		if strings.Contains(text, strings.ToLower(s.ID)) {
			return s, true
		}
	}
	return Service{}, false
}

// HoursText returns the opening hours in lang, falling back to English.
func (c *Catalog) HoursText(lang domain.Language) string {
	if h := c.Hours[lang]; h != "" {
		return h
	}
	return c.Hours[domain.LanguageEnglish]
}

// PriceText formats a price with the catalog currency.
func (c *Catalog) PriceText(s Service) string {
	cur := c.Currency
	if cur == "" {
		cur = "INR"
	}
	return fmt.Sprintf("%s %d", cur, s.Price)
}
