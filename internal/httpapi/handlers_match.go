package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"shootoutserver/internal/domain"
	"shootoutserver/internal/game"
	"shootoutserver/internal/service"
)

// movesPayload is the wire shape of a five-move commit.
type movesPayload struct {
	Moves []string `json:"moves"`
	Role  string   `json:"role"`
}

func (p movesPayload) toDomain() (domain.PlayerMoves, error) {
	if len(p.Moves) != domain.RoundCount {
		return domain.PlayerMoves{}, domain.NewValidationError(map[string]string{
			"moves": fmt.Sprintf("exactly %d moves required", domain.RoundCount),
		})
	}
	pm := domain.PlayerMoves{
		Version: domain.MovesVersion,
		Role:    domain.Role(strings.TrimSpace(strings.ToLower(p.Role))),
	}
	for i, m := range p.Moves {
		pm.Moves[i] = domain.Direction(strings.TrimSpace(strings.ToLower(m)))
	}
	if err := pm.Validate(); err != nil {
		return domain.PlayerMoves{}, err
	}
	return pm, nil
}

type actionEnvelope struct {
	Action string `json:"action"`
}

type createRequest struct {
	Action   string        `json:"action"`
	PlayerID string        `json:"playerId"`
	Email    string        `json:"email"`
	Username string        `json:"username"`
	Avatar   string        `json:"avatar"`
	Moves    *movesPayload `json:"moves,omitempty"`
}

type joinRequest struct {
	Action   string `json:"action"`
	MatchID  string `json:"matchId"`
	PlayerID string `json:"playerId"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

type emailActionRequest struct {
	Action  string `json:"action"`
	MatchID string `json:"matchId"`
	Email   string `json:"email"`
}

type revengeRequest struct {
	Action          string `json:"action"`
	MatchID         string `json:"matchId"`
	PlayerAEmail    string `json:"playerAEmail"`
	PlayerBEmail    string `json:"playerBEmail"`
	PlayerAUsername string `json:"playerAUsername"`
	PlayerBUsername string `json:"playerBUsername"`
	PlayerAAvatar   string `json:"playerAAvatar"`
	PlayerBAvatar   string `json:"playerBAvatar"`
}

type submitMovesRequest struct {
	Action   string       `json:"action"`
	MatchID  string       `json:"matchId"`
	PlayerID string       `json:"playerId"`
	Moves    movesPayload `json:"moves"`
}

type matchResponse struct {
	Match  domain.Match `json:"match"`
	Result *game.Result `json:"result"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

// handleMatchAction is the single action-dispatch entrypoint. The
// action tag selects a typed request which maps onto exactly one
// service method; unknown actions are rejected up front.
func (a *api) handleMatchAction(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid body")
		return
	}
	var env actionEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	switch env.Action {
	case "create":
		a.handleCreate(w, r, body)
	case "join":
		a.handleJoin(w, r, body, false)
	case "takeover-player-b":
		a.handleJoin(w, r, body, true)
	case "invite-player":
		a.handleInvite(w, r, body)
	case "decline-challenge":
		a.handleDecline(w, r, body)
	case "cancel-challenge":
		a.handleCancel(w, r, body)
	case "create-revenge":
		a.handleRevenge(w, r, body)
	case "submit-moves":
		a.handleSubmitMoves(w, r, body)
	default:
		WriteDomainError(w, domain.NewValidationError(map[string]string{"action": "unknown action"}))
	}
}

func (a *api) handleCreate(w http.ResponseWriter, r *http.Request, body []byte) {
	var req createRequest
	if err := unmarshalStrict(body, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	var moves *domain.PlayerMoves
	if req.Moves != nil {
		pm, err := req.Moves.toDomain()
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		moves = &pm
	}

	m, err := a.matchSvc.Create(r.Context(), service.CreateParams{
		PlayerID: req.PlayerID,
		Email:    req.Email,
		Username: req.Username,
		AvatarID: req.Avatar,
		Moves:    moves,
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, matchResponse{Match: m})
}

func (a *api) handleJoin(w http.ResponseWriter, r *http.Request, body []byte, takeover bool) {
	var req joinRequest
	if err := unmarshalStrict(body, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	p := service.JoinParams{
		MatchID:  strings.TrimSpace(req.MatchID),
		PlayerID: req.PlayerID,
		Email:    req.Email,
		Username: req.Username,
		AvatarID: req.Avatar,
	}

	var (
		m   domain.Match
		err error
	)
	if takeover {
		m, err = a.matchSvc.TakeoverPlayerB(r.Context(), p)
	} else {
		m, err = a.matchSvc.Join(r.Context(), p)
	}
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, matchResponse{Match: m})
}

func (a *api) handleInvite(w http.ResponseWriter, r *http.Request, body []byte) {
	var req emailActionRequest
	if err := unmarshalStrict(body, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}
	err := a.matchSvc.InvitePlayer(r.Context(), service.InviteParams{
		MatchID: strings.TrimSpace(req.MatchID),
		Email:   req.Email,
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, okResponse{OK: true})
}

func (a *api) handleDecline(w http.ResponseWriter, r *http.Request, body []byte) {
	var req emailActionRequest
	if err := unmarshalStrict(body, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}
	err := a.matchSvc.DeclineChallenge(r.Context(), service.DeclineParams{
		MatchID: strings.TrimSpace(req.MatchID),
		Email:   req.Email,
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, okResponse{OK: true})
}

func (a *api) handleCancel(w http.ResponseWriter, r *http.Request, body []byte) {
	var req emailActionRequest
	if err := unmarshalStrict(body, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}
	err := a.matchSvc.CancelChallenge(r.Context(), service.CancelParams{
		MatchID: strings.TrimSpace(req.MatchID),
		Email:   req.Email,
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, okResponse{OK: true})
}

func (a *api) handleRevenge(w http.ResponseWriter, r *http.Request, body []byte) {
	var req revengeRequest
	if err := unmarshalStrict(body, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}
	m, err := a.matchSvc.CreateRevenge(r.Context(), service.RevengeParams{
		MatchID:         strings.TrimSpace(req.MatchID),
		PlayerAEmail:    req.PlayerAEmail,
		PlayerBEmail:    req.PlayerBEmail,
		PlayerAUsername: req.PlayerAUsername,
		PlayerBUsername: req.PlayerBUsername,
		PlayerAAvatar:   req.PlayerAAvatar,
		PlayerBAvatar:   req.PlayerBAvatar,
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, matchResponse{Match: m})
}

func (a *api) handleSubmitMoves(w http.ResponseWriter, r *http.Request, body []byte) {
	var req submitMovesRequest
	if err := unmarshalStrict(body, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}
	pm, err := req.Moves.toDomain()
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	m, res, err := a.matchSvc.SubmitMoves(r.Context(), service.SubmitMovesParams{
		MatchID:  strings.TrimSpace(req.MatchID),
		PlayerID: req.PlayerID,
		Moves:    pm,
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, matchResponse{Match: m, Result: res})
}

func (a *api) handleMatchGet(w http.ResponseWriter, r *http.Request) {
	matchID := strings.TrimSpace(r.URL.Query().Get("matchId"))
	if matchID == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"matchId": "required"}))
		return
	}

	m, res, err := a.matchSvc.Get(r.Context(), matchID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, matchResponse{Match: m, Result: res})
}

func unmarshalStrict(data []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
