package handlers

import (
	"net/http"
	"strconv"

	"github.com/mtandao-labs/hotspotpay/internal/application"
	"github.com/mtandao-labs/hotspotpay/internal/interfaces/rest"
)

type ListAttemptsResponse struct {
	Attempts []rest.Attempt `json:"attempts"`
	Count    int            `json:"count"`
}

// ListAttempts is the operator's view over recent attempts, filterable by
// status and phone number.
func (h *Handlers) ListAttempts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, err := parseQueryInt(q.Get("limit"), 50)
	if err != nil {
		h.em.WriteError(w, application.NewInvalidRequestError("limit must be an integer", err))
		return
	}
	offset, err := parseQueryInt(q.Get("offset"), 0)
	if err != nil {
		h.em.WriteError(w, application.NewInvalidRequestError("offset must be an integer", err))
		return
	}

	attempts, err := h.queryService.ListAttempts(r.Context(), application.ListFilter{
		Status: q.Get("status"),
		Phone:  q.Get("phone"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.em.WriteError(w, err)
		return
	}

	out := make([]rest.Attempt, 0, len(attempts))
	for _, attempt := range attempts {
		out = append(out, rest.ToAPIAttempt(attempt))
	}

	rest.WriteJSON(w, http.StatusOK, ListAttemptsResponse{
		Attempts: out,
		Count:    len(out),
	})
}

func parseQueryInt(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
