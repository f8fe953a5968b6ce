package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kirillkom/hr-onboarding/internal/core/domain"
)

func TestBuiltinDefaultCatalog(t *testing.T) {
	c, err := Builtin("")
	if err != nil {
		t.Fatalf("Builtin() error = %v", err)
	}
	keys := c.Keys()
	want := []string{"nda", "aadhaar", "pan", "education", "photo"}
	if len(keys) != len(want) {
		t.Fatalf("expected %d requirements, got %v", len(want), keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("key %d = %q, want %q", i, keys[i], want[i])
		}
	}
	pan, ok := c.Lookup("pan")
	if !ok || pan.DisplayName != "PAN Card" {
		t.Fatalf("unexpected pan entry %+v", pan)
	}
}

func TestBuiltinPassbookVariant(t *testing.T) {
	c, err := Builtin("with-passbook")
	if err != nil {
		t.Fatalf("Builtin() error = %v", err)
	}
	if _, ok := c.Lookup("passbook"); !ok {
		t.Fatalf("expected passbook requirement")
	}
	if _, ok := c.Lookup("nda"); ok {
		t.Fatalf("passbook variant has no nda requirement")
	}
}

func TestBuiltinUnknownVariant(t *testing.T) {
	_, err := Builtin("missing")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestParseNormalizesKeywords(t *testing.T) {
	c, err := Parse([]byte(`
requirements:
  - key: pan
    keywords: ["  PAN ", "", "PanCard"]
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if c[0].DisplayName != "pan" {
		t.Fatalf("expected display name fallback to key, got %q", c[0].DisplayName)
	}
	if len(c[0].Keywords) != 2 || c[0].Keywords[0] != "pan" || c[0].Keywords[1] != "pancard" {
		t.Fatalf("unexpected keywords %v", c[0].Keywords)
	}
}

func TestParseRejectsInvalidCatalogs(t *testing.T) {
	cases := map[string]string{
		"empty":       `requirements: []`,
		"no key":      "requirements:\n  - displayName: x\n    keywords: [a]\n",
		"duplicate":   "requirements:\n  - key: a\n    keywords: [a]\n  - key: a\n    keywords: [b]\n",
		"no keywords": "requirements:\n  - key: a\n    keywords: [\"  \"]\n",
		"bad yaml":    "requirements: [",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(raw))
			if !domain.IsKind(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	raw := "requirements:\n  - key: photo\n    displayName: Photo\n    keywords: [selfie]\n"
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	c, err := Load(path, "with-passbook")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(c) != 1 || c[0].Key != "photo" {
		t.Fatalf("expected file catalog to win over variant, got %+v", c)
	}
}
