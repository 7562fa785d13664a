package extract

import "regexp"

// Labeled fields resolved through the fallback chain.
const (
	FieldPublicationNumber = "publication_number"
	FieldLocation          = "location"
)

// LabelRule declares how a labeled field is recognized. Pattern matches the
// label text; the text-line fallback accepts the first non-empty line within
// Lookahead lines after the label that is shorter than MaxLength runes.
type LabelRule struct {
	Field     string
	Pattern   *regexp.Regexp
	Lookahead int
	MaxLength int
}

// DefaultLabelRules covers the gazette's sidebar fields.
var DefaultLabelRules = []LabelRule{
	{
		Field:     FieldPublicationNumber,
		Pattern:   regexp.MustCompile(`(?i)^Publ\.-?\s?Nr\.?:?\s*$`),
		Lookahead: 3,
		MaxLength: 50,
	},
	{
		Field:     FieldLocation,
		Pattern:   regexp.MustCompile(`(?i)^Stelle:?\s*$`),
		Lookahead: 3,
		MaxLength: 100,
	},
}
