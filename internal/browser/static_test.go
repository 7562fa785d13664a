package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/gazette-permits/internal/gazette"
)

func newListingServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/liste", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "", "1":
			fmt.Fprint(w, `<html><body>
				<a href="/ekab/1/publikation/">Baugesuch Eins</a>
				<nav><a href="#top">Nach oben</a><a class="next" href="/liste?page=2">Weiter &raquo;</a></nav>
			</body></html>`)
		default:
			fmt.Fprint(w, `<html><body>
				<a href="/ekab/2/publikation/">Baugesuch Zwei</a>
				<nav><a href="/liste?page=2#top">Weiter</a></nav>
			</body></html>`)
		}
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestStaticGotoAndFollowNext(t *testing.T) {
	t.Parallel()

	server := newListingServer(t)
	b := NewStatic(StaticConfig{UserAgent: "permit-test"}, nil)
	ctx := context.Background()

	snap, err := b.Goto(ctx, server.URL+"/liste")
	require.NoError(t, err)
	require.Equal(t, server.URL+"/liste", snap.URL)
	require.Contains(t, snap.HTML, "Baugesuch Eins")

	clicked, err := b.Click(ctx, gazette.Control{Selector: "a", Text: "weiter"})
	require.NoError(t, err)
	require.True(t, clicked)

	current, err := b.Capture(ctx)
	require.NoError(t, err)
	require.Equal(t, server.URL+"/liste?page=2", current.URL)
	require.Contains(t, current.HTML, "Baugesuch Zwei")

	clicked, err = b.Click(ctx, gazette.Control{Selector: "a", Text: "Weiter"})
	require.NoError(t, err)
	require.False(t, clicked, "link back to the current page is not an advance")

	clicked, err = b.Click(ctx, gazette.Control{Selector: `a[rel="next"]`})
	require.NoError(t, err)
	require.False(t, clicked)
}

func TestStaticCannotScroll(t *testing.T) {
	t.Parallel()

	scrolled, err := NewStatic(StaticConfig{}, nil).ScrollToBottom(context.Background())
	require.NoError(t, err)
	require.False(t, scrolled)
}

func TestStaticGotoFailureIsNavigationError(t *testing.T) {
	t.Parallel()

	server := newListingServer(t)
	_, err := NewStatic(StaticConfig{}, nil).Goto(context.Background(), server.URL+"/missing")
	var navErr *gazette.NavigationError
	require.ErrorAs(t, err, &navErr)
	require.Equal(t, server.URL+"/missing", navErr.URL)
}

func TestStaticCaptureBeforeGoto(t *testing.T) {
	t.Parallel()

	b := NewStatic(StaticConfig{}, nil)
	_, err := b.Capture(context.Background())
	require.ErrorIs(t, err, errNoPage)
	_, err = b.Click(context.Background(), gazette.Control{Selector: "a"})
	require.ErrorIs(t, err, errNoPage)
}

func TestStaticGotoCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewStatic(StaticConfig{}, nil).Goto(ctx, "http://127.0.0.1:1/")
	require.Error(t, err)
}
