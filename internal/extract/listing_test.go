package extract

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/gazette-permits/internal/gazette"
)

const structuredListing = `
<html><body><ul class="publication-list">
  <li class="publication-list__item" data-detailurl="/ekab/9/publikation/">
    <article>
      <a class="publication-summary__title" href="/ekab/1/publikation/">Baugesuch
         Neubau</a>
      <span class="box-publication-date">29.08.2025</span>
      <ul class="box-defenition-list">
        <li><div class="col-sm-4">Gesuchsteller:</div><div class="col-sm-8">Muster AG</div></li>
        <li><div class="col-sm-4">Stelle:</div><div class="col-sm-8"> Aarau </div></li>
      </ul>
      <p class="mb-3">Neubau Mehrfamilienhaus</p>
      <a title="PDF ansehen" href="/doc/1.pdf">PDF</a>
    </article>
  </li>
  <li class="publication-list__item" data-detailurl="/ekab/2/publikation/">
    <article><a class="publication-summary__title">Ohne Link</a></article>
  </li>
  <li class="publication-list__item"><article><span>kein Link</span></article></li>
</ul></body></html>`

const genericListing = `
<html><body><main>
  <article><h3>Baugesuch Aarau • 29.08.2025</h3><a href="/ekab/7/publikation/"><img src="x.png"></a></article>
  <div><a href="https://amtsblatt.ag.ch/ekab/8/publikation/">Rodungsgesuch Baden</a></div>
  <div><a href="/ekab/8/publikation/">Doppelt</a></div>
  <a href="/publikationen/?page=2">Weiter</a>
  <a href="/ekab/9/publikation/#anchor">Anker</a>
  <a href="https://example.org/ekab/1/publikation/">Fremd</a>
  <a href="/ekab/10/publikation/"></a>
</main></body></html>`

func TestListingStructuredStrategy(t *testing.T) {
	t.Parallel()

	e := NewListingExtractor(gazette.DefaultBaseURL, nil, ListingLayout{})
	entries, strategy := e.Extract(gazette.Snapshot{HTML: structuredListing})

	require.Equal(t, "structured", strategy)
	require.Len(t, entries, 3)
	require.Equal(t, gazette.ListEntry{
		Title:            "Baugesuch Neubau",
		PublishedDateRaw: "29.08.2025",
		LocationLabel:    "Aarau",
		DetailURL:        "https://amtsblatt.ag.ch/ekab/1/publikation/",
		DocumentURL:      "https://amtsblatt.ag.ch/doc/1.pdf",
		Snippet:          "Neubau Mehrfamilienhaus",
	}, entries[0])
	require.Equal(t, "https://amtsblatt.ag.ch/ekab/2/publikation/", entries[1].DetailURL)
	require.Empty(t, entries[1].DocumentURL)
	require.Empty(t, entries[2].DetailURL)
}

func TestListingGenericLinkStrategy(t *testing.T) {
	t.Parallel()

	e := NewListingExtractor(gazette.DefaultBaseURL, nil, ListingLayout{})
	entries, strategy := e.Extract(gazette.Snapshot{HTML: genericListing})

	require.Equal(t, "generic-link", strategy)
	require.Equal(t, []gazette.ListEntry{
		{
			Title:            "Baugesuch Aarau",
			PublishedDateRaw: "29.08.2025",
			DetailURL:        "https://amtsblatt.ag.ch/ekab/7/publikation/",
		},
		{
			Title:     "Rodungsgesuch Baden",
			DetailURL: "https://amtsblatt.ag.ch/ekab/8/publikation/",
		},
	}, entries)
}

func TestListingNoEntries(t *testing.T) {
	t.Parallel()

	e := NewListingExtractor("", nil, ListingLayout{})
	entries, strategy := e.Extract(gazette.Snapshot{HTML: `<html><body><p>Keine Resultate</p></body></html>`})
	require.Empty(t, entries)
	require.Empty(t, strategy)
	require.Zero(t, e.Count(gazette.Snapshot{}))
}

func TestListingEntriesRestartable(t *testing.T) {
	t.Parallel()

	e := NewListingExtractor(gazette.DefaultBaseURL, nil, ListingLayout{})
	seq := e.Entries(gazette.Snapshot{HTML: structuredListing})

	first := slices.Collect(seq)
	second := slices.Collect(seq)
	require.Len(t, first, 3)
	require.Equal(t, first, second)

	var taken int
	for range seq {
		taken++
		break
	}
	require.Equal(t, 1, taken)
	require.Equal(t, 3, e.Count(gazette.Snapshot{HTML: structuredListing}))
}

func TestTitleFromContext(t *testing.T) {
	t.Parallel()

	e := NewListingExtractor(gazette.DefaultBaseURL, nil, ListingLayout{})
	html := `<ul><li class="list-item"><div>Umbau Scheune • Zofingen</div><div>weitere Angaben</div>
		<a href="/ekab/3/publikation/"> </a></li></ul>`
	entries, _ := e.Extract(gazette.Snapshot{HTML: html})
	require.Len(t, entries, 1)
	require.Equal(t, "Umbau Scheune", entries[0].Title)
}
