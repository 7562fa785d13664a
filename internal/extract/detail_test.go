package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/gazette-permits/internal/gazette"
)

const wellFormedDetail = `
<html><body>
  <h2 class="box-mainbox-main-title"> Baugesuch   Neubau MFH </h2>
  <div class="box-publication-date">Publiziert am 29.08.2025</div>
  <aside><ul>
    <li><p><b>Publ.-Nr.:</b></p><p>BG-2025-117</p></li>
    <li><p><b>Stelle:</b></p><p>Aarau</p></li>
  </ul></aside>
  <div class="publication-detail__content">
    <p>Gesuchsteller: Muster AG,
       Bahnhofstrasse 1, 5000 Aarau</p>
    <p>Bauobjekt: Neubau</p>
  </div>
  <a title="PDF ansehen" href="/ekab/1/publikation/dokument.pdf">PDF ansehen</a>
</body></html>`

const flatDetail = `
<html><body>
  <h2 class="box-mainbox-main-title">Baugesuch Neubau MFH</h2>
  <div class="box-publication-date">laufend</div>
  <div class="sidebar">
    <div>Publ.-Nr.</div><div>BG-2025-117</div>
    <span>Stelle:</span><br><span>Aarau</span>
  </div>
  <div class="publication-detail__content"><p>Muster AG, Bahnhofstrasse 1</p></div>
</body></html>`

func newTestParser() *DetailParser {
	return NewDetailParser(gazette.DefaultBaseURL, DetailLayout{}, nil, zap.NewNop())
}

func TestDetailParserWellFormedPage(t *testing.T) {
	t.Parallel()

	rec := newTestParser().Parse(gazette.Snapshot{
		URL:  "https://amtsblatt.ag.ch/ekab/1/publikation/",
		HTML: wellFormedDetail,
	}, "https://amtsblatt.ag.ch/ekab/1/publikation/?ref=list")

	require.Equal(t, gazette.DetailRecord{
		Title:             "Baugesuch Neubau MFH",
		PublicationNumber: "BG-2025-117",
		PublishedDate:     "2025-08-29",
		Location:          "Aarau",
		ApplicantAddress:  "Muster AG, Bahnhofstrasse 1, 5000 Aarau",
		SourceURL:         "https://amtsblatt.ag.ch/ekab/1/publikation/",
		DocumentURL:       "https://amtsblatt.ag.ch/ekab/1/publikation/dokument.pdf",
	}, rec)
}

func TestDetailParserTextLineFallbackMatchesStructured(t *testing.T) {
	t.Parallel()

	p := newTestParser()
	structured := p.Parse(gazette.Snapshot{HTML: wellFormedDetail}, "https://amtsblatt.ag.ch/ekab/1/publikation/")
	flat := p.Parse(gazette.Snapshot{HTML: flatDetail}, "https://amtsblatt.ag.ch/ekab/1/publikation/")

	require.Equal(t, structured.Location, flat.Location)
	require.Equal(t, structured.PublicationNumber, flat.PublicationNumber)
	require.Equal(t, "laufend", flat.PublishedDate)
	require.Equal(t, "Muster AG, Bahnhofstrasse 1", flat.ApplicantAddress)
	require.Empty(t, flat.DocumentURL)
	require.Equal(t, "https://amtsblatt.ag.ch/ekab/1/publikation/", flat.SourceURL)
}

func TestDetailParserMissingFieldsAreEmpty(t *testing.T) {
	t.Parallel()

	rec := newTestParser().Parse(gazette.Snapshot{HTML: "<html><body></body></html>"}, "/ekab/5/publikation/")
	require.Equal(t, gazette.DetailRecord{SourceURL: "https://amtsblatt.ag.ch/ekab/5/publikation/"}, rec)
}

func TestDetailParserDefinitionList(t *testing.T) {
	t.Parallel()

	html := `<html><body><dl><dt>Stelle</dt><dd>Baden</dd><dt>Publ.-Nr</dt><dd>42</dd></dl></body></html>`
	rec := newTestParser().Parse(gazette.Snapshot{HTML: html}, "https://amtsblatt.ag.ch/ekab/6/publikation/")
	require.Equal(t, "Baden", rec.Location)
	require.Equal(t, "42", rec.PublicationNumber)
}

func TestTextLineLookaheadWindow(t *testing.T) {
	t.Parallel()

	rule := LabelRule{Field: FieldLocation, Pattern: DefaultLabelRules[1].Pattern, Lookahead: 3, MaxLength: 100}
	boilerplate := strings.Repeat("Dies ist ein sehr langer Hinweistext ohne Bezug. ", 4)

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "skips overlong line",
			body: "<div>Stelle:</div><div>" + boilerplate + "</div><div>Aarau</div>",
			want: "Aarau",
		},
		{
			name: "value beyond window",
			body: "<div>Stelle:</div><div>" + boilerplate + "</div><div>" + boilerplate + "</div><div>" + boilerplate + "</div><div>Aarau</div>",
			want: "",
		},
		{
			name: "label with trailing whitespace",
			body: "<div>stelle:   </div><div>Lenzburg</div>",
			want: "Lenzburg",
		},
		{
			name: "no label",
			body: "<div>Ort</div><div>Aarau</div>",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body>" + tt.body + "</body></html>"))
			require.NoError(t, err)
			require.Equal(t, tt.want, textLine(doc, rule))
		})
	}
}

func TestVisibleLinesSkipsHiddenElements(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<html><head><title>x</title></head><body><script>var a = 1;</script><p>Eins</p><div>Zwei <b>fett</b></div></body></html>`))
	require.NoError(t, err)
	require.Equal(t, []string{"Eins", "Zwei fett"}, visibleLines(doc.Find("body")))
}
