// Package catalog loads the document requirement catalog from YAML.
package catalog

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/hr-onboarding/internal/core/domain"
)

const DefaultVariant = "default"

//go:embed catalogs/*.yaml
var builtin embed.FS

type file struct {
	Requirements []domain.DocumentRequirement `yaml:"requirements"`
}

// Load reads the catalog from path when set, otherwise the named embedded variant.
func Load(path, variant string) (domain.Catalog, error) {
	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog file: %w", err)
		}
		return Parse(raw)
	}
	return Builtin(variant)
}

func Builtin(variant string) (domain.Catalog, error) {
	variant = strings.TrimSpace(variant)
	if variant == "" {
		variant = DefaultVariant
	}
	raw, err := builtin.ReadFile("catalogs/" + variant + ".yaml")
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "load builtin catalog", fmt.Errorf("unknown variant %q", variant))
	}
	return Parse(raw)
}

func Parse(raw []byte) (domain.Catalog, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse catalog", err)
	}
	out, err := normalize(f.Requirements)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "validate catalog", err)
	}
	return out, nil
}

func normalize(reqs []domain.DocumentRequirement) (domain.Catalog, error) {
	if len(reqs) == 0 {
		return nil, errors.New("catalog has no requirements")
	}
	seen := make(map[string]struct{}, len(reqs))
	out := make(domain.Catalog, 0, len(reqs))
	for i, req := range reqs {
		key := strings.TrimSpace(req.Key)
		if key == "" {
			return nil, fmt.Errorf("requirement %d: key is required", i)
		}
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("requirement %d: duplicate key %q", i, key)
		}
		seen[key] = struct{}{}

		keywords := make([]string, 0, len(req.Keywords))
		for _, kw := range req.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				keywords = append(keywords, kw)
			}
		}
		if len(keywords) == 0 {
			return nil, fmt.Errorf("requirement %q: at least one keyword is required", key)
		}

		name := strings.TrimSpace(req.DisplayName)
		if name == "" {
			name = key
		}
		out = append(out, domain.DocumentRequirement{Key: key, DisplayName: name, Keywords: keywords})
	}
	return out, nil
}
