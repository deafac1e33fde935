package httpapi

import (
	"net/http"
	"strings"

	"shootoutserver/internal/domain"
)

func (a *api) handleStatsGet(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"email": "required"}))
		return
	}

	stats, err := a.statsSvc.SummaryByEmail(r.Context(), email)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}
