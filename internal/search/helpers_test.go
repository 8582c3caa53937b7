package search

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-fulltext-engine/config"
	"github.com/gcbaptista/go-fulltext-engine/index"
	"github.com/gcbaptista/go-fulltext-engine/store"
)

type product struct {
	name       string
	department string
	sku        string
}

// catalog is indexed in order, so DocID = sku - 1.
var catalog = []product{
	{"TV", "TVs", "1"},
	{"Smart TV", "TVs", "2"},
	{"Smartphone", "Smartphones", "3"},
	{"Cellphone", "Smartphones", "4"},
	{"Case for Smartphone", "Smartphone Cases & Covers", "5"},
	{"Smart TV 4K", "TVs", "6"},
	{"TV Wall Bracket", "TV Accessories", "7"},
}

func catalogSettings() *config.IndexSettings {
	settings := &config.IndexSettings{
		Name: "products",
		Fields: []config.FieldSchema{
			{Name: "product", Type: config.FieldTypeText},
			{Name: "department", Type: config.FieldTypeText},
			{Name: "sku", Type: config.FieldTypeKeyword},
		},
		DefaultField: "product",
	}
	settings.ApplyDefaults()
	return settings
}

func productFields(p product) []index.Field {
	return []index.Field{
		index.TextField("product", p.name),
		index.TextField("department", p.department),
		index.KeywordField("sku", p.sku),
	}
}

func buildCatalog(t testing.TB) (*index.InvertedIndex, *store.DocumentStore) {
	t.Helper()
	ii := index.NewInvertedIndex(nil)
	ds := store.NewDocumentStore()
	for i, p := range catalog {
		fields := productFields(p)
		ds.Put(uint32(i), fields)
		require.NoError(t, ii.Add(uint32(i), fields))
	}
	return ii, ds
}

func docIDs(rs []Hit) []index.DocID {
	ids := make([]index.DocID, len(rs))
	for i, h := range rs {
		ids[i] = h.DocID
	}
	return ids
}
