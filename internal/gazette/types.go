package gazette

import "time"

// ListEntry is one candidate found on a listing page. It is discarded once its
// detail page has been processed.
type ListEntry struct {
	Title            string
	PublishedDateRaw string
	LocationLabel    string
	DetailURL        string
	DocumentURL      string
	Snippet          string
}

// DetailRecord is the canonical record parsed from one detail page.
// SourceURL is the primary key in the external store.
type DetailRecord struct {
	Title             string `json:"title"`
	PublicationNumber string `json:"publication_number"`
	PublishedDate     string `json:"published_date"`
	Location          string `json:"location"`
	ApplicantAddress  string `json:"applicant_address"`
	SourceURL         string `json:"source_url"`
	DocumentURL       string `json:"document_url"`
}

// Snapshot is the rendered DOM of a page at one point in time.
type Snapshot struct {
	// URL is the final document URL after redirects.
	URL string
	// HTML is the serialized document.
	HTML string
	// Height is the document scroll height at capture time.
	Height int64
}

// Control describes one "next page" control pattern. An element matches when it
// satisfies Selector and, if Text is set, its visible text contains Text
// (case-insensitive).
type Control struct {
	Selector string `mapstructure:"selector"`
	Text     string `mapstructure:"text"`
}

// DefaultNextControls lists the known next-page controls in priority order.
var DefaultNextControls = []Control{
	{Selector: `a[rel="next"]`},
	{Selector: `button[rel="next"]`},
	{Selector: "a", Text: "Weiter"},
	{Selector: "button", Text: "Weiter"},
	{Selector: "a", Text: "Nächste"},
	{Selector: "button", Text: "Nächste"},
	{Selector: ".pagination-next a"},
	{Selector: ".pager__item--next a"},
}

// Outcome classifies how a single record was handled.
type Outcome string

// Record outcomes counted in the run summary.
const (
	OutcomeWritten   Outcome = "written"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeFailed    Outcome = "failed"
)

// Summary aggregates the per-record outcomes of one run.
type Summary struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Pages      int           `json:"pages"`
	Discovered int           `json:"discovered"`
	MissingURL int           `json:"missing_url"`
	Written    int           `json:"written"`
	Duplicates int           `json:"duplicates"`
	Failed     int           `json:"failed"`
}

// Processed returns the number of entries that reached the dedup stage.
func (s Summary) Processed() int {
	return s.Written + s.Duplicates + s.Failed
}

// Record adds one outcome to the counters.
func (s *Summary) Record(o Outcome) {
	switch o {
	case OutcomeWritten:
		s.Written++
	case OutcomeDuplicate:
		s.Duplicates++
	case OutcomeFailed:
		s.Failed++
	}
}
