package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/gazette-permits/internal/gazette"
)

// DetailLayout names the fixed structural positions on a detail page.
type DetailLayout struct {
	Title string
	Date  string
	// Labels are the elements that may carry a field label.
	Labels     string
	Paragraphs string
	Document   string
}

// DefaultDetailLayout describes the gazette's publication detail markup.
var DefaultDetailLayout = DetailLayout{
	Title:      "h2.box-mainbox-main-title",
	Date:       ".box-publication-date",
	Labels:     "li p b, li p strong, dt, th, .col-sm-4",
	Paragraphs: "div.publication-detail__content > p",
	Document:   `a[title="PDF ansehen"]`,
}

type fieldStrategy struct {
	name string
	run  func(doc *goquery.Document, rule LabelRule) string
}

// DetailParser builds a DetailRecord from one detail page snapshot.
type DetailParser struct {
	baseURL    string
	layout     DetailLayout
	rules      []LabelRule
	strategies []fieldStrategy
	logger     *zap.Logger
}

// NewDetailParser wires the label table. A nil rules slice selects
// DefaultLabelRules.
func NewDetailParser(baseURL string, layout DetailLayout, rules []LabelRule, logger *zap.Logger) *DetailParser {
	if baseURL == "" {
		baseURL = gazette.DefaultBaseURL
	}
	if layout.Title == "" {
		layout = DefaultDetailLayout
	}
	if rules == nil {
		rules = DefaultLabelRules
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &DetailParser{
		baseURL: baseURL,
		layout:  layout,
		rules:   rules,
		logger:  logger,
	}
	p.strategies = []fieldStrategy{
		{name: "structured-label", run: p.structuredLabel},
		{name: "text-line", run: textLine},
	}
	return p
}

// Parse always returns a complete record; fields no strategy could resolve
// are empty. The source URL is the snapshot's final URL when known, otherwise
// detailURL.
func (p *DetailParser) Parse(snap gazette.Snapshot, detailURL string) gazette.DetailRecord {
	source := snap.URL
	if source == "" {
		source = detailURL
	}
	rec := gazette.DetailRecord{SourceURL: gazette.ResolveURL(p.baseURL, source)}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snap.HTML))
	if err != nil {
		p.logger.Warn("detail snapshot not parseable", zap.String("url", rec.SourceURL), zap.Error(err))
		return rec
	}

	rec.Title = gazette.NormalizeSpace(doc.Find(p.layout.Title).First().Text())
	rec.PublishedDate = gazette.NormalizeSwissDate(doc.Find(p.layout.Date).First().Text())
	rec.ApplicantAddress = p.applicantAddress(doc)
	href, _ := doc.Find(p.layout.Document).First().Attr("href")
	rec.DocumentURL = gazette.ResolveURL(p.baseURL, href)

	for _, rule := range p.rules {
		value := p.resolve(doc, rule, rec.SourceURL)
		switch rule.Field {
		case FieldPublicationNumber:
			rec.PublicationNumber = value
		case FieldLocation:
			rec.Location = value
		}
	}
	return rec
}

// resolve walks the strategy chain for one field and returns the first
// non-empty value.
func (p *DetailParser) resolve(doc *goquery.Document, rule LabelRule, url string) string {
	for _, s := range p.strategies {
		if value := s.run(doc, rule); value != "" {
			p.logger.Debug("field resolved",
				zap.String("url", url),
				zap.String("field", rule.Field),
				zap.String("strategy", s.name),
			)
			return value
		}
	}
	p.logger.Debug("field not found", zap.String("url", url), zap.String("field", rule.Field))
	return ""
}

// structuredLabel finds a label element and reads the element right after it.
// A label wrapped alone in a paragraph (<p><b>Stelle:</b></p>) is treated as
// that paragraph, so the value is the following paragraph.
func (p *DetailParser) structuredLabel(doc *goquery.Document, rule LabelRule) string {
	var value string
	doc.Find(p.layout.Labels).EachWithBreak(func(_ int, label *goquery.Selection) bool {
		text := gazette.NormalizeSpace(label.Text())
		if !rule.Pattern.MatchString(text) {
			return true
		}
		node := label
		for depth := 0; depth < 2; depth++ {
			parent := node.Parent()
			if parent.Length() == 0 || goquery.NodeName(parent) == "li" {
				break
			}
			if gazette.NormalizeSpace(parent.Text()) != text {
				break
			}
			node = parent
		}
		value = gazette.NormalizeSpace(node.Next().Text())
		return value == ""
	})
	return value
}

// textLine scans the flattened visible text for the label line and takes the
// next plausible line within the lookahead window.
func textLine(doc *goquery.Document, rule LabelRule) string {
	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	lines := visibleLines(root)
	for i, line := range lines {
		if !rule.Pattern.MatchString(line) {
			continue
		}
		for j := i + 1; j <= i+rule.Lookahead && j < len(lines); j++ {
			next := gazette.NormalizeSpace(lines[j])
			if next != "" && utf8.RuneCountInString(next) < rule.MaxLength {
				return next
			}
		}
	}
	return ""
}

// applicantAddress takes the first content paragraph and strips a leading
// "label:" prefix up to the first colon.
func (p *DetailParser) applicantAddress(doc *goquery.Document) string {
	var first string
	doc.Find(p.layout.Paragraphs).EachWithBreak(func(_ int, para *goquery.Selection) bool {
		first = gazette.NormalizeSpace(para.Text())
		return first == ""
	})
	if _, after, found := strings.Cut(first, ":"); found {
		return gazette.NormalizeSpace(after)
	}
	return first
}
