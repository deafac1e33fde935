package httpapi

import (
	"net/http"
)

type registerTokenRequest struct {
	Email    string `json:"email"`
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

type deleteTokenRequest struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

func (a *api) handleTokenRegister(w http.ResponseWriter, r *http.Request) {
	var req registerTokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	token, err := a.notifySvc.RegisterToken(r.Context(), req.Email, req.Token, req.Platform)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, token)
}

func (a *api) handleTokenDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteTokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	if err := a.notifySvc.DeleteToken(r.Context(), req.Email, req.Token); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
