package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-fulltext-engine/config"
)

func TestReaderSnapshotIsolation(t *testing.T) {
	ii := newProductIndex(t)
	r := ii.Reader()

	require.NoError(t, ii.Add(7, product("TV Stand", "TV Accessories", "8")))
	require.NoError(t, ii.Add(8, []Field{TextField("brand", "Acme")}))

	assert.Equal(t, 7, r.NumDocs())
	assert.Len(t, r.Postings("product", "tv"), 4, "documents added later are invisible")
	assert.Empty(t, r.Postings("product", "stand"))
	assert.NotContains(t, r.TermsWithPrefix("product", "st"), "stand")
	assert.Equal(t, 0, r.FieldLength("product", 7))
	assert.InDelta(t, 2.0, r.AvgFieldLength("product"), 1e-9)
	_, ok := r.FieldInfo("brand")
	assert.False(t, ok)

	fresh := ii.Reader()
	assert.Equal(t, 9, fresh.NumDocs())
	assert.Len(t, fresh.Postings("product", "tv"), 5)
	assert.Contains(t, fresh.TermsWithPrefix("product", "st"), "stand")
}

func TestTermsWithPrefix(t *testing.T) {
	r := newProductIndex(t).Reader()

	assert.Equal(t, []string{"smart", "smartphone"}, r.TermsWithPrefix("product", "smart"))
	assert.Equal(t, []string{"smart", "smartphone"}, r.TermsWithPrefix("product", "sm"))
	assert.Empty(t, r.TermsWithPrefix("product", "zz"))
	assert.Empty(t, r.TermsWithPrefix("missing", "a"))
	assert.Len(t, r.TermsWithPrefix("product", ""), len(r.Terms("product")))
}

func TestTermsInRangeLexicographic(t *testing.T) {
	ii := NewInvertedIndex(nil)
	for i, sku := range []string{"1", "10", "2", "3", "5", "7"} {
		require.NoError(t, ii.Add(DocID(i), []Field{KeywordField("sku", sku)}))
	}
	r := ii.Reader()

	tests := []struct {
		name      string
		low, high string
		incLow    bool
		incHigh   bool
		expected  []string
	}{
		{"inclusive", "2", "5", true, true, []string{"2", "3", "5"}},
		{"exclusive", "2", "5", false, false, []string{"3"}},
		{"mixed", "2", "5", true, false, []string{"2", "3"}},
		{"open low", "", "2", true, true, []string{"1", "10", "2"}},
		{"open high", "5", "", false, true, []string{"7"}},
		{"string order puts 10 after 1", "1", "2", false, false, []string{"10"}},
		{"empty interval", "5", "2", true, true, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.TermsInRange("sku", tt.low, tt.high, tt.incLow, tt.incHigh)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestTermsInRangeNumeric(t *testing.T) {
	ii := NewInvertedIndex(nil)
	for i, price := range []string{"1", "10", "2.5", "n/a", "5"} {
		f := KeywordField("price", price)
		f.Ordering = config.OrderingNumeric
		require.NoError(t, ii.Add(DocID(i), []Field{f}))
	}
	r := ii.Reader()

	got, err := r.TermsInRange("price", "2", "10", true, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"10", "2.5", "5"}, got, "terms come back in dictionary order")

	got, err = r.TermsInRange("price", "", "5", true, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2.5"}, got, "non-numeric terms never match")

	_, err = r.TermsInRange("price", "cheap", "5", true, true)
	assert.Error(t, err)

	info, ok := r.FieldInfo("price")
	require.True(t, ok)
	assert.Equal(t, config.OrderingNumeric, info.Ordering)
}

func TestTermsMatchingAndStats(t *testing.T) {
	r := newProductIndex(t).Reader()

	got := r.TermsMatching("department", func(term string) bool { return len(term) <= 3 })
	assert.Equal(t, []string{"tv", "tvs"}, got)

	assert.Equal(t, []string{"department", "product", "sku"}, r.Fields())

	stats, ok := r.FieldStats("sku")
	require.True(t, ok)
	assert.Equal(t, config.FieldTypeKeyword, stats.Type)
	assert.Equal(t, 7, stats.DocCount)
	assert.Equal(t, 7, stats.Terms)
	assert.InDelta(t, 1.0, stats.AverageLength, 1e-9)
}
