package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/frontdesk/internal/domain"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	require.NotEmpty(t, c.Services)
	assert.Equal(t, "Lumen Photo Studio", c.Business)

	for _, s := range c.Services {
		for _, lang := range domain.Languages {
			assert.NotEmpty(t, s.Names[lang], "%s missing %s name", s.ID, lang)
			assert.NotEmpty(t, s.Keywords[lang], "%s missing %s keywords", s.ID, lang)
		}
	}
	for _, lang := range domain.Languages {
		assert.NotEmpty(t, c.HoursText(lang))
	}
}

func TestMatch(t *testing.T) {
	c := Default()
	tests := []struct {
		name      string
		utterance string
		lang      domain.Language
		want      string
		ok        bool
	}{
		{"english keyword", "I want a Wedding shoot", domain.LanguageEnglish, "wedding", true},
		{"longer keyword first", "we need a pre-wedding shoot", domain.LanguageEnglish, "prewedding", true},
		{"hindi keyword", "मुझे शादी की बुकिंग चाहिए", domain.LanguageHindi, "wedding", true},
		{"marathi keyword", "लग्न साठी", domain.LanguageMarathi, "wedding", true},
		{"cross language", "baby photos please", domain.LanguageHindi, "maternity", true},
		{"by id", "portrait", domain.LanguageEnglish, "portrait", true},
		{"no match", "something else entirely", domain.LanguageEnglish, "", false},
		{"empty", "   ", domain.LanguageEnglish, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := c.Match(tt.utterance, tt.lang)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, s.ID)
		})
	}
}

func TestMatchIsDeterministic(t *testing.T) {
	c := Default()
	first, _ := c.Match("birthday party and product shots", domain.LanguageEnglish)
	for i := 0; i < 20; i++ {
		s, _ := c.Match("birthday party and product shots", domain.LanguageEnglish)
		assert.Equal(t, first.ID, s.ID)
	}
}

func TestInactiveServicesAreHidden(t *testing.T) {
	c, err := Parse([]byte(`
business: Test
services:
  - id: drone
    inactive: true
    names: {en: Drone Footage}
    keywords: {en: [drone]}
  - id: studio
    names: {en: Studio Hire}
    keywords: {en: [studio]}
`))
	require.NoError(t, err)

	_, ok := c.Lookup("drone")
	assert.False(t, ok)
	_, ok = c.Match("drone shots", domain.LanguageEnglish)
	assert.False(t, ok)

	s, ok := c.Lookup("studio")
	require.True(t, ok)
	assert.Equal(t, "Studio Hire", s.Name(domain.LanguageHindi), "falls back to English")
	assert.Len(t, c.Active(), 1)
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"missing id":      "services:\n  - names: {en: X}\n",
		"duplicate id":    "services:\n  - id: a\n    names: {en: A}\n  - id: a\n    names: {en: B}\n",
		"no english name": "services:\n  - id: a\n    names: {hi: ए}\n",
		"bad language":    "services:\n  - id: a\n    names: {en: A, fr: A}\n",
		"negative price":  "services:\n  - id: a\n    price: -1\n    names: {en: A}\n",
		"bad yaml":        "services: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Business, c.Business)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("business: Other\ncurrency: USD\nservices:\n  - id: a\n    price: 10\n    names: {en: Alpha}\n    keywords: {en: [ALPHA]}\n"), 0o600))
	c, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Other", c.Business)

	s, ok := c.Match("I'd like alpha", domain.LanguageEnglish)
	require.True(t, ok, "keywords are lower-cased on load")
	assert.Equal(t, "USD 10", c.PriceText(s))

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
