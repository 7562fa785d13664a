package extract

import (
	"iter"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/gazette-permits/internal/gazette"
)

// DefaultDetailPattern matches absolute URLs of gazette detail pages.
var DefaultDetailPattern = regexp.MustCompile(`(?i)^https?://amtsblatt\.ag\.ch/(ekab/\d+/publikation/|publikationen/[^?#\s]+)`)

var rawDatePattern = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2}|\d{1,2}\.\d{1,2}\.\d{4})\b`)

// ListingLayout names the selectors of the structured publication cards.
type ListingLayout struct {
	Item          string
	TitleLink     string
	DetailAttr    string
	Date          string
	FieldRow      string
	FieldKey      string
	FieldValue    string
	LocationLabel *regexp.Regexp
	Document      string
	Snippet       string
	// Containers are the ancestors searched when a generic link has no text.
	Containers string
}

// DefaultListingLayout describes the gazette's publication list markup.
var DefaultListingLayout = ListingLayout{
	Item:          ".publication-list__item",
	TitleLink:     "a.publication-summary__title",
	DetailAttr:    "data-detailurl",
	Date:          ".box-publication-date",
	FieldRow:      ".box-defenition-list li",
	FieldKey:      ".col-sm-4",
	FieldValue:    ".col-sm-8",
	LocationLabel: regexp.MustCompile(`(?i)^Stelle:?$`),
	Document:      `a[title="PDF ansehen"]`,
	Snippet:       "article p.mb-3",
	Containers:    "article, li, .result, .card, .publication, .list-item",
}

type listingStrategy struct {
	name string
	run  func(doc *goquery.Document) []gazette.ListEntry
}

// ListingExtractor harvests candidate entries from listing snapshots.
type ListingExtractor struct {
	baseURL       string
	layout        ListingLayout
	detailPattern *regexp.Regexp
	strategies    []listingStrategy
}

// NewListingExtractor builds the ranked strategy chain. Empty arguments fall
// back to the gazette defaults.
func NewListingExtractor(baseURL string, detailPattern *regexp.Regexp, layout ListingLayout) *ListingExtractor {
	if baseURL == "" {
		baseURL = gazette.DefaultBaseURL
	}
	if detailPattern == nil {
		detailPattern = DefaultDetailPattern
	}
	if layout.Item == "" {
		layout = DefaultListingLayout
	}
	e := &ListingExtractor{
		baseURL:       baseURL,
		layout:        layout,
		detailPattern: detailPattern,
	}
	e.strategies = []listingStrategy{
		{name: "structured", run: e.structured},
		{name: "generic-link", run: e.genericLinks},
	}
	return e
}

// Entries yields the entries of snap. The strategy is chosen once per page:
// the first strategy producing any entry wins. Ranging twice over the result
// re-parses the snapshot and yields the same entries.
func (e *ListingExtractor) Entries(snap gazette.Snapshot) iter.Seq[gazette.ListEntry] {
	return func(yield func(gazette.ListEntry) bool) {
		entries, _ := e.Extract(snap)
		for _, entry := range entries {
			if !yield(entry) {
				return
			}
		}
	}
}

// Extract returns the entries of snap together with the name of the strategy
// that produced them ("" when none did).
func (e *ListingExtractor) Extract(snap gazette.Snapshot) ([]gazette.ListEntry, string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snap.HTML))
	if err != nil {
		return nil, ""
	}
	for _, s := range e.strategies {
		if entries := s.run(doc); len(entries) > 0 {
			return entries, s.name
		}
	}
	return nil, ""
}

// Count reports how many entries the snapshot currently shows.
func (e *ListingExtractor) Count(snap gazette.Snapshot) int {
	entries, _ := e.Extract(snap)
	return len(entries)
}

func (e *ListingExtractor) structured(doc *goquery.Document) []gazette.ListEntry {
	l := e.layout
	var entries []gazette.ListEntry
	doc.Find(l.Item).Each(func(_ int, item *goquery.Selection) {
		titleLink := item.Find(l.TitleLink).First()
		href, _ := titleLink.Attr("href")
		if strings.TrimSpace(href) == "" {
			href, _ = item.Attr(l.DetailAttr)
		}
		docHref, _ := item.Find(l.Document).First().Attr("href")

		var location string
		item.Find(l.FieldRow).Each(func(_ int, row *goquery.Selection) {
			key := gazette.NormalizeSpace(row.Find(l.FieldKey).Text())
			if l.LocationLabel.MatchString(key) {
				location = gazette.NormalizeSpace(row.Find(l.FieldValue).Text())
			}
		})

		entries = append(entries, gazette.ListEntry{
			Title:            gazette.NormalizeSpace(titleLink.Text()),
			PublishedDateRaw: gazette.NormalizeSpace(item.Find(l.Date).First().Text()),
			LocationLabel:    location,
			DetailURL:        gazette.ResolveURL(e.baseURL, href),
			DocumentURL:      gazette.ResolveURL(e.baseURL, docHref),
			Snippet:          gazette.NormalizeSpace(item.Find(l.Snippet).First().Text()),
		})
	})
	return entries
}

// genericLinks collects every link to a detail page, deduplicated by URL. Links
// without text borrow a title from their enclosing card; links still untitled
// afterwards are dropped.
func (e *ListingExtractor) genericLinks(doc *goquery.Document) []gazette.ListEntry {
	var (
		entries []gazette.ListEntry
		anchors []*goquery.Selection
		index   = map[string]int{}
	)
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		abs := gazette.ResolveURL(e.baseURL, href)
		if abs == "" || strings.Contains(abs, "#") || !e.detailPattern.MatchString(abs) {
			return
		}
		text := gazette.NormalizeSpace(a.Text())
		if i, seen := index[abs]; seen {
			if entries[i].Title == "" && text != "" {
				entries[i].Title = text
				anchors[i] = a
			}
			return
		}
		index[abs] = len(entries)
		entries = append(entries, gazette.ListEntry{Title: text, DetailURL: abs})
		anchors = append(anchors, a)
	})

	out := make([]gazette.ListEntry, 0, len(entries))
	for i, entry := range entries {
		container := anchors[i].Closest(e.layout.Containers)
		if entry.Title == "" {
			entry.Title = titleFromContext(container)
		}
		if entry.Title == "" {
			continue
		}
		if container.Length() > 0 {
			entry.PublishedDateRaw = rawDatePattern.FindString(visibleText(container))
		}
		out = append(out, entry)
	}
	return out
}

// titleFromContext takes the first line-like segment of the container's visible
// text.
func titleFromContext(container *goquery.Selection) string {
	if container.Length() == 0 {
		return ""
	}
	lines := visibleLines(container)
	if len(lines) == 0 {
		return ""
	}
	first, _, _ := strings.Cut(lines[0], " • ")
	return gazette.NormalizeSpace(first)
}
