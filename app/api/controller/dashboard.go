package controller

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/rollups-terminal/rollupsx/pkg/dashboard"
	"github.com/rollups-terminal/rollupsx/pkg/pipeline"
)

const loadFailedMessage = "Failed to fetch data. Please try again later."

// HandleDashboard runs the pipeline once and returns the filtered table and chart view.
func (c *Controller) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	q, snap, ok := c.run(w, r)
	if !ok {
		return
	}
	c.writeJSON(w, http.StatusOK, dashboard.Build(snap, q, c.App.Palette, c.App.Now()))
}

// HandleRollups runs the pipeline once and returns the filtered enriched rows.
func (c *Controller) HandleRollups(w http.ResponseWriter, r *http.Request) {
	q, snap, ok := c.run(w, r)
	if !ok {
		return
	}
	c.writeJSON(w, http.StatusOK, q.Rows(snap.Rows, c.App.Now()))
}

// run validates the query parameters before running the pipeline.
func (c *Controller) run(w http.ResponseWriter, r *http.Request) (dashboard.Query, *pipeline.Snapshot, bool) {
	q, err := dashboard.ParseQuery(r.URL.Query())
	if err != nil {
		c.writeError(w, http.StatusBadRequest, err.Error())
		return dashboard.Query{}, nil, false
	}

	snap, err := c.App.Pipeline.Run(r.Context())
	if err != nil {
		c.App.Logger.Error("Pipeline run failed", zap.Error(err))
		c.writeError(w, http.StatusInternalServerError, loadFailedMessage)
		return dashboard.Query{}, nil, false
	}
	return q, snap, true
}
