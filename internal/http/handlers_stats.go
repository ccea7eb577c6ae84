package http

import (
	"net/http"
)

type timelineGroupJSON struct {
	Label string     `json:"label"`
	Items []itemJSON `json:"items"`
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromContext(r.Context())

	groups, err := s.stats.Timeline(r.Context(), owner)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	out := make([]timelineGroupJSON, 0, len(groups))
	for _, g := range groups {
		items, err := toItemJSONList(g.Items)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		out = append(out, timelineGroupJSON{Label: g.Label, Items: items})
	}
	writeData(w, http.StatusOK, out)
}

func (s *Server) handleTaskStats(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromContext(r.Context())

	stats, err := s.stats.TaskStats(r.Context(), owner)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeData(w, http.StatusOK, stats)
}

func (s *Server) handleTransactionStats(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromContext(r.Context())

	stats, err := s.stats.TransactionStats(r.Context(), owner)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeData(w, http.StatusOK, stats)
}
