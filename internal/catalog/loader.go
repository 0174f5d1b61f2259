package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vikenamera/CraftVersee/internal/domain"
)

//go:embed default_catalog.yaml
var defaultCatalogYAML []byte

// ErrEmptyCatalog is returned when a catalog file declares no cards.
var ErrEmptyCatalog = errors.New("catalog: no product cards declared")

type catalogFile struct {
	Categories []categoryEntry `yaml:"categories"`
	Cards      []cardEntry     `yaml:"cards"`
}

type categoryEntry struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
}

type cardEntry struct {
	ID       string `yaml:"id"`
	Category string `yaml:"category"`
	Title    string `yaml:"title"`
	Price    string `yaml:"price"`
	Image    string `yaml:"image"`
}

// Default returns the catalog bundled with the binary.
func Default() (domain.Catalog, error) {
	return Parse(defaultCatalogYAML)
}

// LoadFile reads a YAML catalog from disk. An empty path selects the bundled catalog.
func LoadFile(path string) (domain.Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Catalog{}, fmt.Errorf("catalog: %s does not exist: %w", path, err)
		}
		return domain.Catalog{}, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	cat, err := Parse(raw)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("catalog: %s: %w", path, err)
	}
	return cat, nil
}

// Parse decodes a YAML catalog. Card identifiers default to their position ("card-3") and
// categories referenced only by cards are added with their identifier as label.
func Parse(raw []byte) (domain.Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return domain.Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}
	if len(file.Cards) == 0 {
		return domain.Catalog{}, ErrEmptyCatalog
	}

	cat := domain.Catalog{}
	known := make(map[string]struct{})
	for _, entry := range file.Categories {
		id := strings.TrimSpace(entry.ID)
		if id == "" {
			continue
		}
		if _, ok := known[id]; ok {
			continue
		}
		known[id] = struct{}{}
		label := strings.TrimSpace(entry.Label)
		if label == "" {
			label = id
		}
		cat.Categories = append(cat.Categories, domain.Category{ID: id, Label: label})
	}

	seen := make(map[string]struct{}, len(file.Cards))
	for i, entry := range file.Cards {
		id := strings.TrimSpace(entry.ID)
		if id == "" {
			id = fmt.Sprintf("card-%d", i+1)
		}
		if _, dup := seen[id]; dup {
			return domain.Catalog{}, fmt.Errorf("parse catalog: duplicate card id %q", id)
		}
		seen[id] = struct{}{}

		category := strings.TrimSpace(entry.Category)
		if category != "" {
			if _, ok := known[category]; !ok {
				known[category] = struct{}{}
				cat.Categories = append(cat.Categories, domain.Category{ID: category, Label: category})
			}
		}
		cat.Cards = append(cat.Cards, domain.ProductCard{
			ID:        id,
			Category:  category,
			PriceText: entry.Price,
			Title:     strings.TrimSpace(entry.Title),
			ImageURL:  strings.TrimSpace(entry.Image),
		})
	}
	return cat, nil
}
