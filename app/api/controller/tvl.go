package controller

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/rollups-terminal/rollupsx/pkg/tvl"
)

// HandleTVL relays the upstream TVL chart for ?projectId= unchanged.
func (c *Controller) HandleTVL(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("projectId")

	body, err := c.App.TVL.Fetch(r.Context(), projectID)
	switch {
	case errors.Is(err, tvl.ErrProjectIDRequired):
		c.writeError(w, http.StatusBadRequest, "projectId is required")
		return
	case err != nil:
		c.App.Logger.Warn("TVL proxy request failed", zap.String("projectId", projectID), zap.Error(err))
		c.writeError(w, http.StatusInternalServerError, "Error fetching TVL data")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
