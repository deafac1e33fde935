package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"shootoutserver/internal/domain"
	"shootoutserver/internal/service"
)

// memMatchesStore reproduces the postgres store's conditional-write
// guards in memory.
type memMatchesStore struct {
	matches map[string]domain.Match
}

func newMemMatchesStore() *memMatchesStore {
	return &memMatchesStore{matches: map[string]domain.Match{}}
}

func (s *memMatchesStore) CreateMatch(ctx context.Context, m domain.Match) error {
	s.matches[m.ID] = m
	return nil
}

func (s *memMatchesStore) GetMatch(ctx context.Context, matchID string) (domain.Match, error) {
	m, ok := s.matches[matchID]
	if !ok {
		return domain.Match{}, domain.ErrNotFound
	}
	return m, nil
}

func (s *memMatchesStore) ClaimSlotB(ctx context.Context, matchID string, slot domain.Slot) (bool, error) {
	m, ok := s.matches[matchID]
	if !ok || m.Status != domain.MatchStatusWaiting || m.SlotB.HasMoves() {
		return false, nil
	}
	if m.SlotB.Email != "" && !strings.EqualFold(m.SlotB.Email, slot.Email) {
		return false, nil
	}
	slot.AssignedRole = m.SlotB.AssignedRole
	m.SlotB = slot
	s.matches[matchID] = m
	return true, nil
}

func (s *memMatchesStore) ReplaceSlotB(ctx context.Context, matchID string, slot domain.Slot) (bool, error) {
	m, ok := s.matches[matchID]
	if !ok || m.SlotB.HasMoves() {
		return false, nil
	}
	slot.AssignedRole = m.SlotB.AssignedRole
	m.SlotB = slot
	s.matches[matchID] = m
	return true, nil
}

func (s *memMatchesStore) SetInvitedEmail(ctx context.Context, matchID, email string) (bool, error) {
	m, ok := s.matches[matchID]
	if !ok || m.Status != domain.MatchStatusWaiting || m.SlotB.HasMoves() {
		return false, nil
	}
	m.SlotB.Email = email
	s.matches[matchID] = m
	return true, nil
}

func (s *memMatchesStore) DeleteIfDeclinable(ctx context.Context, matchID, requesterEmail string) (bool, error) {
	m, ok := s.matches[matchID]
	if !ok || !strings.EqualFold(m.SlotB.Email, requesterEmail) {
		return false, nil
	}
	delete(s.matches, matchID)
	return true, nil
}

func (s *memMatchesStore) DeleteIfCancelable(ctx context.Context, matchID, requesterEmail string) (bool, error) {
	m, ok := s.matches[matchID]
	if !ok || !strings.EqualFold(m.SlotA.Email, requesterEmail) || m.SlotB.HasMoves() {
		return false, nil
	}
	delete(s.matches, matchID)
	return true, nil
}

func (s *memMatchesStore) CommitMoves(ctx context.Context, matchID string, slotID domain.SlotID, pm domain.PlayerMoves) (bool, error) {
	m, ok := s.matches[matchID]
	if !ok {
		return false, nil
	}
	if slotID == domain.SlotA {
		if m.SlotA.HasMoves() {
			return false, nil
		}
		m.SlotA.Moves = &pm
	} else {
		if m.SlotB.HasMoves() {
			return false, nil
		}
		m.SlotB.Moves = &pm
	}
	s.matches[matchID] = m
	return true, nil
}

func (s *memMatchesStore) FinishMatch(ctx context.Context, matchID string, winner *domain.SlotID) (bool, error) {
	m, ok := s.matches[matchID]
	if !ok || m.Status != domain.MatchStatusWaiting {
		return false, nil
	}
	m.Status = domain.MatchStatusFinished
	m.Winner = winner
	s.matches[matchID] = m
	return true, nil
}

func (s *memMatchesStore) FindOpenMatchBetween(ctx context.Context, emailA, emailB string) (string, error) {
	return "", nil
}

func testRouter(store *memMatchesStore) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := &service.MatchService{
		Matches: store,
		Logger:  logger,
		Now:     func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
	return NewRouter(RouterOpts{Logger: logger, Matches: svc})
}

func doJSON(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeMatchResponse(t *testing.T, rec *httptest.ResponseRecorder) matchResponse {
	t.Helper()
	var resp matchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v\n%s", err, rec.Body.String())
	}
	return resp
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env errorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope: %v\n%s", err, rec.Body.String())
	}
	return env.Error.Code
}

func TestMatchActionCreate(t *testing.T) {
	store := newMemMatchesStore()
	h := testRouter(store)

	rec := doJSON(t, h, http.MethodPost, "/v1/match", `{
		"action": "create",
		"playerId": "p1",
		"email": "alice@example.com",
		"username": "Alice",
		"moves": {"role": "shooter", "moves": ["left","center","right","left","center"]}
	}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	resp := decodeMatchResponse(t, rec)
	if resp.Match.ID == "" {
		t.Fatal("match id must be set")
	}
	if resp.Match.Status != domain.MatchStatusWaiting {
		t.Fatalf("status = %s, want waiting", resp.Match.Status)
	}
	if !resp.Match.SlotA.HasMoves() {
		t.Fatal("slot a moves must be committed")
	}
	if resp.Result != nil {
		t.Fatal("no result on a fresh match")
	}
}

func TestMatchActionUnknown(t *testing.T) {
	h := testRouter(newMemMatchesStore())

	rec := doJSON(t, h, http.MethodPost, "/v1/match", `{"action": "self-destruct"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if code := errorCode(t, rec); code != "validation_error" {
		t.Fatalf("code = %q, want validation_error", code)
	}
}

func TestMatchActionBadJSON(t *testing.T) {
	h := testRouter(newMemMatchesStore())

	rec := doJSON(t, h, http.MethodPost, "/v1/match", `{"action": "create",`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestMatchActionJoinFull(t *testing.T) {
	store := newMemMatchesStore()
	store.matches["m1"] = domain.Match{
		ID:     "m1",
		SlotA:  domain.Slot{PlayerID: "p1", Email: "alice@example.com"},
		SlotB:  domain.Slot{PlayerID: "p2", Email: "bob@example.com"},
		Status: domain.MatchStatusWaiting,
	}
	h := testRouter(store)

	rec := doJSON(t, h, http.MethodPost, "/v1/match", `{
		"action": "join",
		"matchId": "m1",
		"playerId": "p3",
		"email": "carol@example.com",
		"username": "Carol"
	}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409: %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "match_full" {
		t.Fatalf("code = %q, want match_full", code)
	}
}

func TestSubmitMovesEndToEnd(t *testing.T) {
	store := newMemMatchesStore()
	store.matches["m1"] = domain.Match{
		ID:     "m1",
		SlotA:  domain.Slot{PlayerID: "p1", Email: "alice@example.com"},
		SlotB:  domain.Slot{PlayerID: "p2", Email: "bob@example.com"},
		Status: domain.MatchStatusWaiting,
	}
	h := testRouter(store)

	rec := doJSON(t, h, http.MethodPost, "/v1/match", `{
		"action": "submit-moves",
		"matchId": "m1",
		"playerId": "p1",
		"moves": {"role": "shooter", "moves": ["left","center","right","left","center"]}
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("first submit status = %d: %s", rec.Code, rec.Body.String())
	}
	if resp := decodeMatchResponse(t, rec); resp.Result != nil {
		t.Fatal("no result after the first submission")
	}

	rec = doJSON(t, h, http.MethodPost, "/v1/match", `{
		"action": "submit-moves",
		"matchId": "m1",
		"playerId": "p2",
		"moves": {"role": "keeper", "moves": ["right","center","left","center","right"]}
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("second submit status = %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeMatchResponse(t, rec)
	if resp.Result == nil {
		t.Fatal("expected a resolved result")
	}
	if resp.Match.Status != domain.MatchStatusFinished {
		t.Fatalf("status = %s, want finished", resp.Match.Status)
	}
	if resp.Result.ShooterScore != 4 || resp.Result.KeeperScore != 1 {
		t.Fatalf("score = %d:%d, want 4:1", resp.Result.ShooterScore, resp.Result.KeeperScore)
	}

	// Replaying either submission hits the write guard.
	rec = doJSON(t, h, http.MethodPost, "/v1/match", `{
		"action": "submit-moves",
		"matchId": "m1",
		"playerId": "p1",
		"moves": {"role": "shooter", "moves": ["left","left","left","left","left"]}
	}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("replay status = %d, want 409", rec.Code)
	}
	if code := errorCode(t, rec); code != "already_submitted" {
		t.Fatalf("code = %q, want already_submitted", code)
	}
}

func TestSubmitMovesWrongCount(t *testing.T) {
	store := newMemMatchesStore()
	store.matches["m1"] = domain.Match{
		ID:     "m1",
		SlotA:  domain.Slot{PlayerID: "p1", Email: "alice@example.com"},
		Status: domain.MatchStatusWaiting,
	}
	h := testRouter(store)

	rec := doJSON(t, h, http.MethodPost, "/v1/match", `{
		"action": "submit-moves",
		"matchId": "m1",
		"playerId": "p1",
		"moves": {"role": "shooter", "moves": ["left","center"]}
	}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
}

func TestDeclineChallengeForbidden(t *testing.T) {
	store := newMemMatchesStore()
	store.matches["m1"] = domain.Match{
		ID:     "m1",
		SlotA:  domain.Slot{PlayerID: "p1", Email: "alice@example.com"},
		SlotB:  domain.Slot{Email: "bob@example.com"},
		Status: domain.MatchStatusWaiting,
	}
	h := testRouter(store)

	rec := doJSON(t, h, http.MethodPost, "/v1/match", `{
		"action": "decline-challenge",
		"matchId": "m1",
		"email": "mallory@example.com"
	}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403: %s", rec.Code, rec.Body.String())
	}
}

func TestMatchGet(t *testing.T) {
	store := newMemMatchesStore()
	store.matches["m1"] = domain.Match{
		ID:     "m1",
		SlotA:  domain.Slot{PlayerID: "p1", Email: "alice@example.com"},
		Status: domain.MatchStatusWaiting,
	}
	h := testRouter(store)

	rec := doJSON(t, h, http.MethodGet, "/v1/match?matchId=m1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if resp := decodeMatchResponse(t, rec); resp.Match.ID != "m1" {
		t.Fatalf("match id = %q, want m1", resp.Match.ID)
	}

	rec = doJSON(t, h, http.MethodGet, "/v1/match?matchId=missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/v1/match", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRouterUnknownV1Route(t *testing.T) {
	h := testRouter(newMemMatchesStore())
	rec := doJSON(t, h, http.MethodGet, "/v1/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestRouterServiceNotConfigured(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewRouter(RouterOpts{Logger: logger})
	rec := doJSON(t, h, http.MethodPost, "/v1/match", `{"action":"create"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	h := testRouter(newMemMatchesStore())
	rec := doJSON(t, h, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "ok" {
		t.Fatalf("body = %q, want ok", body)
	}
}
