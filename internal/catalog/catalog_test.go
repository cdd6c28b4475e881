package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsDuplicateKey(t *testing.T) {
	_, err := New([]Product{
		{Key: "cuffie", Name: "Cuffie A", Price: 45},
		{Key: "cuffie", Name: "Cuffie B", Price: 55},
	})
	assert.Error(t, err)
}

func TestNewRejectsInvalidEntries(t *testing.T) {
	_, err := New([]Product{{Key: "", Name: "No Key", Price: 1}})
	assert.Error(t, err)

	_, err = New([]Product{{Key: "x", Name: "", Price: 1}})
	assert.Error(t, err)

	_, err = New([]Product{{Key: "x", Name: "X", Price: -1}})
	assert.Error(t, err)

	_, err = New(nil)
	assert.Error(t, err)
}

func TestListKeepsInsertionOrder(t *testing.T) {
	c := Default()
	list := c.List()
	require.Len(t, list, 3)
	assert.Equal(t, "cuffie", list[0].Key)
	assert.Equal(t, "maglia", list[1].Key)
	assert.Equal(t, "sneakers", list[2].Key)

	// mutating the returned slice must not affect the catalog
	list[0].Price = 1
	p, ok := c.Lookup("cuffie")
	require.True(t, ok)
	assert.Equal(t, 45, p.Price)
}

func TestLookup(t *testing.T) {
	c := Default()
	p, ok := c.Lookup("maglia")
	require.True(t, ok)
	assert.Equal(t, "Maglia Calcio Retrò", p.Name)
	assert.Equal(t, 50, p.Price)

	_, ok = c.Lookup("droni")
	assert.False(t, ok)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	doc := "products:\n  - key: zaino\n    name: Zaino Tech\n    price: 35\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
	p, ok := c.Lookup("zaino")
	require.True(t, ok)
	assert.Equal(t, 35, p.Price)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
