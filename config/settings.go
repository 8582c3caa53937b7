// Package config provides configuration structures for the search engine.
// It defines index settings (field schema, analysis, query parsing and scoring)
// and the server configuration loaded from YAML.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FieldType controls how a field value is turned into terms.
type FieldType string

const (
	// FieldTypeText fields are tokenized by the analyzer and record positions.
	FieldTypeText FieldType = "text"
	// FieldTypeKeyword fields are indexed as a single exact term equal to the raw value.
	FieldTypeKeyword FieldType = "keyword"
)

// TermOrdering selects how range queries compare the terms of a field.
type TermOrdering string

const (
	// OrderingLexicographic compares terms as strings (byte order).
	OrderingLexicographic TermOrdering = "lexicographic"
	// OrderingNumeric parses terms as numbers; non-numeric terms never fall inside a range.
	OrderingNumeric TermOrdering = "numeric"
)

// Default operators applied to clauses that carry no +/- modifier and no AND/OR conjunction.
const (
	OperatorOR  = "OR"
	OperatorAND = "AND"
)

// MultiTermMode decides what an unquoted run of several words (e.g. product:smart tv) means.
type MultiTermMode string

const (
	// MultiTermPhrase treats the run as an exact, order-sensitive phrase (slop 0).
	MultiTermPhrase MultiTermMode = "phrase"
	// MultiTermAnd treats the run as an unordered conjunction of its terms.
	MultiTermAnd MultiTermMode = "and"
)

// StemmerEnglish enables the Snowball English stemmer in the analyzer.
const StemmerEnglish = "english"

// FieldSchema declares one document field.
type FieldSchema struct {
	Name     string       `json:"name" yaml:"name"`
	Type     FieldType    `json:"type" yaml:"type"`                             // "text" or "keyword"
	Stored   *bool        `json:"stored,omitempty" yaml:"stored,omitempty"`     // Defaults to true
	Ordering TermOrdering `json:"ordering,omitempty" yaml:"ordering,omitempty"` // Range comparison mode, defaults to lexicographic
}

// IsStored reports whether the original value is kept for retrieval with hits.
func (f FieldSchema) IsStored() bool {
	return f.Stored == nil || *f.Stored
}

// AnalyzerSettings configures the single analyzer shared by indexing and query parsing.
type AnalyzerSettings struct {
	UnicodeNormalization bool     `json:"unicode_normalization" yaml:"unicode_normalization"` // Apply NFKC before splitting
	SplitCamelCase       bool     `json:"split_camel_case" yaml:"split_camel_case"`           // "theOffice" -> "the", "office"
	Stopwords            []string `json:"stopwords,omitempty" yaml:"stopwords,omitempty"`     // Removed tokens still consume a position
	Stemmer              string   `json:"stemmer,omitempty" yaml:"stemmer,omitempty"`         // "" (none) or "english"
}

// ParserSettings configures the textual query grammar.
type ParserSettings struct {
	DefaultOperator string        `json:"default_operator" yaml:"default_operator"` // "OR" (default) or "AND"
	MultiTermMode   MultiTermMode `json:"multi_term_mode" yaml:"multi_term_mode"`   // "phrase" (default) or "and"
}

// BM25 parameters used when ScoringSettings leaves them unset.
const (
	DefaultK1 = 1.2
	DefaultB  = 0.75
)

// ScoringSettings holds the BM25 parameters. A nil parameter takes its
// default; zero is a valid value for both.
type ScoringSettings struct {
	K1 *float64 `json:"k1,omitempty" yaml:"k1,omitempty"` // Term frequency saturation
	B  *float64 `json:"b,omitempty" yaml:"b,omitempty"`   // Length normalization strength
}

// Params returns k1 and b with defaults applied.
func (s ScoringSettings) Params() (k1, b float64) {
	k1, b = DefaultK1, DefaultB
	if s.K1 != nil {
		k1 = *s.K1
	}
	if s.B != nil {
		b = *s.B
	}
	return k1, b
}

// Float returns a pointer to v, for optional settings.
func Float(v float64) *float64 {
	return &v
}

// IndexSettings contains all configuration options for a search index.
//
// Fields lists every field a document may carry. Documents with fields outside
// the schema are rejected unless AllowDynamicFields is set, in which case the
// unknown fields are indexed as stored text.
type IndexSettings struct {
	Name               string           `json:"name" yaml:"name"`                                 // Unique name for the index
	Fields             []FieldSchema    `json:"fields" yaml:"fields"`                             // Field schema
	DefaultField       string           `json:"default_field" yaml:"default_field"`               // Field used by query clauses without an explicit field
	AllowDynamicFields bool             `json:"allow_dynamic_fields" yaml:"allow_dynamic_fields"` // Index unknown fields as stored text
	Analyzer           AnalyzerSettings `json:"analyzer" yaml:"analyzer"`
	Parser             ParserSettings   `json:"parser" yaml:"parser"`
	Scoring            ScoringSettings  `json:"scoring" yaml:"scoring"`
}

// Field returns the schema entry with the given name.
func (settings *IndexSettings) Field(name string) (FieldSchema, bool) {
	for _, f := range settings.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSchema{}, false
}

// ValidateFieldNames validates the schema and the settings that reference it.
// It returns one message per problem; an empty slice means the settings are usable.
func (settings *IndexSettings) ValidateFieldNames() []string {
	var conflicts []string

	names := make([]string, 0, len(settings.Fields))
	for _, f := range settings.Fields {
		names = append(names, f.Name)
	}
	conflicts = append(conflicts, checkDuplicates("fields", names)...)
	conflicts = append(conflicts, checkDuplicates("analyzer.stopwords", settings.Analyzer.Stopwords)...)

	for _, f := range settings.Fields {
		if strings.TrimSpace(f.Name) == "" {
			conflicts = append(conflicts, "Field name cannot be empty or whitespace-only")
			continue
		}
		if strings.ContainsAny(f.Name, ` :()[]{}"^~\`) {
			conflicts = append(conflicts, "Field '"+f.Name+"' contains characters reserved by the query syntax")
		}
		switch f.Type {
		case FieldTypeText, FieldTypeKeyword:
		default:
			conflicts = append(conflicts, "Invalid type '"+string(f.Type)+"' for field '"+f.Name+"' (must be 'text' or 'keyword')")
		}
		switch f.Ordering {
		case "", OrderingLexicographic, OrderingNumeric:
		default:
			conflicts = append(conflicts, "Invalid ordering '"+string(f.Ordering)+"' for field '"+f.Name+"' (must be 'lexicographic' or 'numeric')")
		}
	}

	conflicts = append(conflicts, settings.validateReferences()...)
	return conflicts
}

// checkDuplicates checks for duplicate values in a slice and returns error messages
func checkDuplicates(fieldName string, fields []string) []string {
	var errors []string
	seen := make(map[string]bool)

	for _, field := range fields {
		if seen[field] {
			errors = append(errors, "Duplicate field '"+field+"' found in "+fieldName)
		}
		seen[field] = true
	}

	return errors
}

// validateReferences checks settings that point at schema fields or enumerations.
func (settings *IndexSettings) validateReferences() []string {
	var errors []string

	if settings.DefaultField != "" {
		if _, ok := settings.Field(settings.DefaultField); !ok && !settings.AllowDynamicFields {
			errors = append(errors, "Default field '"+settings.DefaultField+"' is not declared in fields")
		}
	}

	switch strings.ToUpper(settings.Parser.DefaultOperator) {
	case "", OperatorOR, OperatorAND:
	default:
		errors = append(errors, "Invalid default_operator '"+settings.Parser.DefaultOperator+"' (must be 'OR' or 'AND')")
	}

	switch settings.Parser.MultiTermMode {
	case "", MultiTermPhrase, MultiTermAnd:
	default:
		errors = append(errors, "Invalid multi_term_mode '"+string(settings.Parser.MultiTermMode)+"' (must be 'phrase' or 'and')")
	}

	switch settings.Analyzer.Stemmer {
	case "", StemmerEnglish:
	default:
		errors = append(errors, "Unsupported stemmer '"+settings.Analyzer.Stemmer+"'")
	}

	k1, b := settings.Scoring.Params()
	if k1 < 0 {
		errors = append(errors, fmt.Sprintf("scoring.k1 must not be negative, got %g", k1))
	}
	if b < 0 || b > 1 {
		errors = append(errors, fmt.Sprintf("scoring.b must be within [0, 1], got %g", b))
	}

	return errors
}

// GobEncode stores the settings as JSON. Gob drops pointers to zero values,
// which would turn an explicit b of 0 or a field with stored: false back
// into the defaults on reload.
func (settings IndexSettings) GobEncode() ([]byte, error) {
	return json.Marshal(settingsJSON(settings))
}

// GobDecode restores settings written by GobEncode.
func (settings *IndexSettings) GobDecode(data []byte) error {
	var decoded settingsJSON
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("failed to decode index settings: %w", err)
	}
	*settings = IndexSettings(decoded)
	return nil
}

// settingsJSON has the fields of IndexSettings without its gob methods.
type settingsJSON IndexSettings

// ApplyDefaults applies default values to the index settings
func (settings *IndexSettings) ApplyDefaults() {
	if settings.Fields == nil {
		settings.Fields = []FieldSchema{}
	}
	for i := range settings.Fields {
		if settings.Fields[i].Type == "" {
			settings.Fields[i].Type = FieldTypeText
		}
		if settings.Fields[i].Ordering == "" {
			settings.Fields[i].Ordering = OrderingLexicographic
		}
	}

	// The first text field is the natural target for unqualified clauses
	if settings.DefaultField == "" {
		for _, f := range settings.Fields {
			if f.Type == FieldTypeText {
				settings.DefaultField = f.Name
				break
			}
		}
	}

	if settings.Parser.DefaultOperator == "" {
		settings.Parser.DefaultOperator = OperatorOR
	}
	settings.Parser.DefaultOperator = strings.ToUpper(settings.Parser.DefaultOperator)
	if settings.Parser.MultiTermMode == "" {
		settings.Parser.MultiTermMode = MultiTermPhrase
	}

	if settings.Scoring.K1 == nil {
		settings.Scoring.K1 = Float(DefaultK1)
	}
	if settings.Scoring.B == nil {
		settings.Scoring.B = Float(DefaultB)
	}

	if settings.Analyzer.Stopwords == nil {
		settings.Analyzer.Stopwords = []string{}
	}
}

// LoadIndexSettings reads index settings from a YAML (or JSON, which is valid YAML) file
// and applies defaults.
func LoadIndexSettings(path string) (IndexSettings, error) {
	var settings IndexSettings
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the operator's command line
	if err != nil {
		return settings, fmt.Errorf("reading index settings %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("parsing index settings %s: %w", path, err)
	}
	settings.ApplyDefaults()
	return settings, nil
}
