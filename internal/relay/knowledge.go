package relay

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
)

//go:embed products.json
var defaultProducts []byte

// ProductCatalog is an immutable product -> detail field -> answer table.
type ProductCatalog struct {
	entries map[string]map[string]string
	dump    string
}

func NewProductCatalog(entries map[string]map[string]string) *ProductCatalog {
	cp := make(map[string]map[string]string, len(entries))
	for product, fields := range entries {
		f := make(map[string]string, len(fields))
		for k, v := range fields {
			f[k] = v
		}
		cp[product] = f
	}

	// map keys marshal sorted, so the dump is stable between runs
	b, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		b = []byte("{}")
	}

	return &ProductCatalog{entries: cp, dump: string(b)}
}

// LoadProductCatalog reads a catalog file; an empty path loads the built-in catalog.
func LoadProductCatalog(path string) (*ProductCatalog, error) {
	data := defaultProducts
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read product catalog: %w", err)
		}
		data = b
	}
	return ParseProductCatalog(data)
}

func ParseProductCatalog(data []byte) (*ProductCatalog, error) {
	var entries map[string]map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse product catalog: %w", err)
	}
	return NewProductCatalog(entries), nil
}

func (c *ProductCatalog) Lookup(product, field string) (string, bool) {
	fields, ok := c.entries[product]
	if !ok {
		return "", false
	}
	answer, ok := fields[field]
	return answer, ok
}

func (c *ProductCatalog) Serialize() string {
	return c.dump
}

func (c *ProductCatalog) Len() int {
	return len(c.entries)
}
