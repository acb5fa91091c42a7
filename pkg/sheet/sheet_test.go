package sheet

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rollups-terminal/rollupsx/pkg/rollup"
	"github.com/rollups-terminal/rollupsx/pkg/upstream"
)

func TestParseRow_ColumnMapping(t *testing.T) {
	row := []string{
		"Zora", " https://explorer.zora.energy ", "zora", "ignored",
		"Conduit", "", "", "",
		"2023-06-21", "Social", "OP Stack", "Ethereum", "L2", "should be dropped",
	}
	src := ParseRow(row)

	assert.Equal(t, "Zora", src.Name)
	assert.Equal(t, "https://explorer.zora.energy", src.ExplorerBaseURL)
	assert.Equal(t, "zora", src.TVLProjectID)
	assert.Equal(t, "Conduit", src.Provider)
	assert.Equal(t, time.Date(2023, 6, 21, 0, 0, 0, 0, time.UTC), src.LaunchDate)
	assert.Equal(t, "Social", src.Vertical)
	assert.Equal(t, "OP Stack", src.Framework)
	assert.Equal(t, "Ethereum", src.DataAvailability)
	assert.Equal(t, rollup.LayerL2, src.Layer)
	assert.Empty(t, src.Settlement)
}

func TestParseRow_L3SettlementAndShortRows(t *testing.T) {
	src := ParseRow([]string{"Degen", "", "", "", "Conduit", "", "", "", "3/28/2024", "", "Arbitrum Orbit", "AnyTrust", "L3", "Base"})
	assert.Equal(t, rollup.LayerL3, src.Layer)
	assert.Equal(t, "Base", src.Settlement)
	assert.Equal(t, time.Date(2024, 3, 28, 0, 0, 0, 0, time.UTC), src.LaunchDate)

	short := ParseRow([]string{"Tiny"})
	assert.Equal(t, "Tiny", short.Name)
	assert.Empty(t, short.ExplorerBaseURL)
	assert.False(t, short.HasLaunchDate())
}

func TestParseLaunchDate(t *testing.T) {
	want := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{"2024-01-05", "1/5/2024", "01/05/2024", "Jan 5, 2024", "January 5, 2024", "5 Jan 2024"} {
		assert.Equal(t, want, ParseLaunchDate(s), s)
	}
	assert.True(t, ParseLaunchDate("").IsZero())
	assert.True(t, ParseLaunchDate("soon").IsZero())
}

func TestParseRows_SkipsBlankAndDuplicateNames(t *testing.T) {
	grid := [][]string{
		{"A", "https://a"},
		{""},
		{"B", "https://b"},
		{"A", "https://a-second"},
		{},
	}
	rows := ParseRows(grid, zaptest.NewLogger(t))
	require.Len(t, rows, 2)
	assert.Equal(t, "A", rows[0].Name)
	assert.Equal(t, "https://a", rows[0].ExplorerBaseURL)
	assert.Equal(t, "B", rows[1].Name)
}

func TestClientLoad(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v4/spreadsheets/sheet-123/values/Sheet1!A2:Z1000", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"range":"Sheet1!A2:Z1000","values":[["Zora","https://explorer.zora.energy"],["Mode"]]}`))
	}))
	defer srv.Close()

	logger := zaptest.NewLogger(t)
	c := NewClient(upstream.New(upstream.Opts{Logger: logger}), Opts{BaseURL: srv.URL, SpreadsheetID: "sheet-123", APIKey: "secret"}, logger)

	rows, err := c.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Zora", rows[0].Name)
	assert.Equal(t, "Mode", rows[1].Name)
}

func TestClientLoad_Failures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	logger := zaptest.NewLogger(t)
	hc := upstream.New(upstream.Opts{Logger: logger})

	_, err := NewClient(hc, Opts{BaseURL: srv.URL}, logger).Load(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewClient(hc, Opts{BaseURL: srv.URL, SpreadsheetID: "x"}, logger).Load(context.Background())
	var se *upstream.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusForbidden, se.Code)
}
