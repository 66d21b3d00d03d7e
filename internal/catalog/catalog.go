// Package catalog holds the well-known creditor names offered as suggestions
// when a debt is entered.
package catalog

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var defaultCompanies = []string{
	"Atome",
	"Grab PayLater",
	"Shopee PayLater",
	"Lazada PayLater",
	"Pace",
	"Rely",
	"Hoolah",
	"Maybank",
	"CIMB",
	"Public Bank",
	"RHB Bank",
	"Hong Leong Bank",
	"AmBank",
	"OCBC",
	"UOB",
	"Standard Chartered",
	"HSBC",
	"Citibank",
}

// Catalog is an ordered list of creditor names
type Catalog struct {
	Companies []string `yaml:"companies"`
}

// Default returns the built-in catalog
func Default() *Catalog {
	return &Catalog{Companies: append([]string(nil), defaultCompanies...)}
}

// Load reads a catalog from a YAML file of the form
//
//	companies:
//	  - Atome
//	  - Maybank
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read companies file: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse companies file %s: %w", path, err)
	}
	if len(c.Companies) == 0 {
		return nil, fmt.Errorf("companies file %s lists no companies", path)
	}
	return &c, nil
}

// LoadOrDefault loads path, or returns the default catalog when path is empty
func LoadOrDefault(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Merge combines the catalog with extra names, dropping blanks and
// duplicates (case-sensitive), sorted alphabetically
func (c *Catalog) Merge(extra []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(c.Companies)+len(extra))
	for _, list := range [][]string{c.Companies, extra} {
		for _, name := range list {
			name = strings.TrimSpace(name)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
