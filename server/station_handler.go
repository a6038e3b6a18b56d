package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"Musarty/core/directory"
	"Musarty/logger"
	"Musarty/model"
)

const maxQueryLimit = 500

// StationsResponse wraps directory results for the JSON API.
type StationsResponse struct {
	Success bool            `json:"success"`
	Data    []model.Station `json:"data"`
	Error   string          `json:"error,omitempty"`
}

// StationHandler exposes the directory over HTTP.
type StationHandler struct {
	dir          directory.Directory
	popularLimit int
	searchLimit  int
}

// HandlePopular serves the most-voted stations.
func (h *StationHandler) HandlePopular(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r, h.popularLimit)
	if !ok {
		return
	}
	stations, err := h.dir.FetchPopular(r.Context(), limit)
	h.write(w, stations, err)
}

// HandleSearch serves stations whose name matches ?name=. A blank name
// returns the popular list.
func (h *StationHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		h.HandlePopular(w, r)
		return
	}
	limit, ok := parseLimit(w, r, h.searchLimit)
	if !ok {
		return
	}
	stations, err := h.dir.SearchByName(r.Context(), name, limit)
	h.write(w, stations, err)
}

// write reports directory failures as an empty successful result, the same
// way the player treats them.
func (h *StationHandler) write(w http.ResponseWriter, stations []model.Station, err error) {
	if err != nil {
		logger.Warn("directory query failed, returning empty list", logger.ErrorField(err))
	}
	if stations == nil {
		stations = []model.Station{}
	}
	writeJSON(w, http.StatusOK, StationsResponse{Success: true, Data: stations})
}

func parseLimit(w http.ResponseWriter, r *http.Request, fallback int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > maxQueryLimit {
		writeJSON(w, http.StatusBadRequest, StationsResponse{
			Success: false,
			Data:    []model.Station{},
			Error:   "limit must be between 1 and " + strconv.Itoa(maxQueryLimit),
		})
		return 0, false
	}
	return n, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to write response", logger.ErrorField(err))
	}
}
