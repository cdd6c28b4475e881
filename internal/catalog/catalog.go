// Package catalog holds the immutable product table the bot sells from.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Product is a single sellable item. Price is a whole euro amount.
type Product struct {
	Key   string `yaml:"key"`
	Name  string `yaml:"name"`
	Price int    `yaml:"price"`
}

// Catalog is a read-only, insertion-ordered product collection.
type Catalog struct {
	products []Product
	byKey    map[string]Product
}

// New builds a catalog, rejecting duplicate keys and invalid entries.
func New(products []Product) (*Catalog, error) {
	if len(products) == 0 {
		return nil, fmt.Errorf("catalog: no products")
	}
	c := &Catalog{
		products: make([]Product, 0, len(products)),
		byKey:    make(map[string]Product, len(products)),
	}
	for _, p := range products {
		if p.Key == "" {
			return nil, fmt.Errorf("catalog: product %q has empty key", p.Name)
		}
		if p.Name == "" {
			return nil, fmt.Errorf("catalog: product %q has empty name", p.Key)
		}
		if p.Price < 0 {
			return nil, fmt.Errorf("catalog: product %q has negative price %d", p.Key, p.Price)
		}
		if _, exists := c.byKey[p.Key]; exists {
			return nil, fmt.Errorf("catalog: duplicate product key %q", p.Key)
		}
		c.byKey[p.Key] = p
		c.products = append(c.products, p)
	}
	return c, nil
}

// Default returns the built-in FastReseller catalog.
func Default() *Catalog {
	c, err := New([]Product{
		{Key: "cuffie", Name: "Cuffie Wireless Modello X", Price: 45},
		{Key: "maglia", Name: "Maglia Calcio Retrò", Price: 50},
		{Key: "sneakers", Name: "Sneakers Streetwear Edition", Price: 70},
	})
	if err != nil {
		panic(err) // built-in table is validated by tests
	}
	return c
}

// LoadFile reads a catalog from a YAML file with a top-level products list.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	var doc struct {
		Products []Product `yaml:"products"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	return New(doc.Products)
}

// List returns all products in insertion order. The slice is a copy.
func (c *Catalog) List() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Lookup returns the product for key if it exists.
func (c *Catalog) Lookup(key string) (Product, bool) {
	p, ok := c.byKey[key]
	return p, ok
}

// Len returns the number of products.
func (c *Catalog) Len() int {
	return len(c.products)
}
