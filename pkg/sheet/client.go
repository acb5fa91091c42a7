package sheet

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/rollups-terminal/rollupsx/pkg/rollup"
	"github.com/rollups-terminal/rollupsx/pkg/upstream"
	"github.com/rollups-terminal/rollupsx/pkg/utils"
)

// TargetSheet labels sheet loads in metrics.
const TargetSheet = "sheet"

// DefaultBaseURL is the Google Sheets API host.
const DefaultBaseURL = "https://sheets.googleapis.com"

// DefaultRange skips the header row.
const DefaultRange = "Sheet1!A2:Z1000"

// ErrNotConfigured is returned when no spreadsheet id is set.
var ErrNotConfigured = errors.New("spreadsheet id not configured")

// valuesResponse mirrors the Sheets v4 values.get payload.
type valuesResponse struct {
	Range  string     `json:"range"`
	Values [][]string `json:"values"`
}

// Opts configures a Client.
type Opts struct {
	BaseURL       string
	SpreadsheetID string
	Range         string
	APIKey        string
	Timeout       time.Duration
}

// Client loads the tracking sheet through the Google Sheets values API.
type Client struct {
	http   *upstream.Client
	opts   Opts
	logger *zap.Logger
}

// NewClient returns a sheet Client.
func NewClient(http *upstream.Client, o Opts, logger *zap.Logger) *Client {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	if o.Range == "" {
		o.Range = DefaultRange
	}
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}
	return &Client{http: http, opts: o, logger: logger}
}

// URL returns the values.get URL for the configured sheet.
func (c *Client) URL() string {
	u := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s",
		utils.TrimURL(c.opts.BaseURL),
		url.PathEscape(c.opts.SpreadsheetID),
		url.PathEscape(c.opts.Range))
	if c.opts.APIKey != "" {
		u += "?" + url.Values{"key": {c.opts.APIKey}}.Encode()
	}
	return u
}

// Load fetches and parses the sheet. Any failure is returned: there is no partial dataset.
func (c *Client) Load(ctx context.Context) ([]rollup.SourceRow, error) {
	if c.opts.SpreadsheetID == "" {
		return nil, ErrNotConfigured
	}

	callCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	var resp valuesResponse
	if err := c.http.GetJSON(callCtx, TargetSheet, c.URL(), &resp); err != nil {
		return nil, fmt.Errorf("load spreadsheet %s: %w", c.opts.SpreadsheetID, err)
	}

	rows := ParseRows(resp.Values, c.logger)
	c.logger.Debug("spreadsheet loaded",
		zap.String("range", resp.Range),
		zap.Int("gridRows", len(resp.Values)),
		zap.Int("rows", len(rows)))
	return rows, nil
}
