package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestSanitizeSite(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"standard https", "https://Amtsblatt.AG.ch/ekab/1/publikation/", "amtsblatt.ag.ch"},
		{"no scheme", "amtsblatt.ag.ch/publikationen", "amtsblatt.ag.ch"},
		{"host with port", "amtsblatt.ag.ch:8443", "amtsblatt.ag.ch"},
		{"invalid url", "http://%", "unknown"},
		{"empty string", "", "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.expected, SanitizeSite(tc.input))
		})
	}
}

func TestCountersAndTextfile(t *testing.T) {
	Init()
	Init()

	before := testutil.ToFloat64(recordsTotal.WithLabelValues("written"))
	ObserveRecord("written")
	ObserveRecord("written")
	require.InDelta(t, before+2, testutil.ToFloat64(recordsTotal.WithLabelValues("written")), 0)

	pages := testutil.ToFloat64(listingPagesTotal)
	ObserveListingPages(3)
	ObserveListingPages(0)
	require.InDelta(t, pages+3, testutil.ToFloat64(listingPagesTotal), 0)

	ObserveDiscovered(5)
	ObserveNavigationFailure("detail", "https://amtsblatt.ag.ch/ekab/1/publikation/")
	require.InDelta(t, 1, testutil.ToFloat64(navigationFailuresTotal.WithLabelValues("detail", "amtsblatt.ag.ch")), 0)
	ObserveDetailFetch(1500 * time.Millisecond)
	ObserveRun(time.Unix(1756425600, 0), 90*time.Second)
	require.InDelta(t, 90, testutil.ToFloat64(lastRunDurationSeconds), 0)

	path := filepath.Join(t.TempDir(), "permits.prom")
	require.NoError(t, WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `permits_records_total{outcome="written"}`)
	require.Contains(t, string(data), "permits_last_run_timestamp_seconds")
}
