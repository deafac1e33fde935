package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"shootoutserver/internal/domain"
	"shootoutserver/internal/service"
)

type memTokensStore struct {
	tokens map[string][]domain.NotificationToken
}

func (s *memTokensStore) UpsertToken(ctx context.Context, userID, token, platform string, when time.Time) (domain.NotificationToken, error) {
	nt := domain.NotificationToken{UserID: userID, Token: token, Platform: platform, UpdatedAt: when}
	s.tokens[userID] = append(s.tokens[userID], nt)
	return nt, nil
}

func (s *memTokensStore) DeleteToken(ctx context.Context, userID, token string) error {
	kept := s.tokens[userID][:0]
	for _, nt := range s.tokens[userID] {
		if nt.Token != token {
			kept = append(kept, nt)
		}
	}
	s.tokens[userID] = kept
	return nil
}

func (s *memTokensStore) ListTokens(ctx context.Context, userID string) ([]domain.NotificationToken, error) {
	return s.tokens[userID], nil
}

func notificationsRouter(users *memUsersStore, tokens *memTokensStore) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(RouterOpts{
		Logger:        logger,
		Notifications: &service.NotificationService{Tokens: tokens, Users: users, Logger: logger},
	})
}

func TestTokenRegister(t *testing.T) {
	users := newMemUsersStore()
	tokens := &memTokensStore{tokens: map[string][]domain.NotificationToken{}}
	h := notificationsRouter(users, tokens)

	rec := doJSON(t, h, http.MethodPost, "/v1/notifications/tokens", `{
		"email": "alice@example.com",
		"token": "tok-1",
		"platform": "android"
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var nt domain.NotificationToken
	if err := json.Unmarshal(rec.Body.Bytes(), &nt); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if nt.Token != "tok-1" || nt.Platform != "android" {
		t.Fatalf("token = %+v", nt)
	}
	// Registering a token for an unknown email creates the user.
	if _, err := users.FindUserByEmail(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("user not created: %v", err)
	}
}

func TestTokenRegisterBadPlatform(t *testing.T) {
	h := notificationsRouter(newMemUsersStore(), &memTokensStore{tokens: map[string][]domain.NotificationToken{}})

	rec := doJSON(t, h, http.MethodPost, "/v1/notifications/tokens", `{
		"email": "alice@example.com",
		"token": "tok-1",
		"platform": "pager"
	}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
}

func TestTokenDelete(t *testing.T) {
	users := newMemUsersStore()
	user, _ := users.CreateUser(context.Background(), "alice@example.com", "Alice")
	tokens := &memTokensStore{tokens: map[string][]domain.NotificationToken{
		user.ID: {{UserID: user.ID, Token: "tok-1", Platform: "ios"}},
	}}
	h := notificationsRouter(users, tokens)

	rec := doJSON(t, h, http.MethodDelete, "/v1/notifications/tokens", `{
		"email": "alice@example.com",
		"token": "tok-1"
	}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204: %s", rec.Code, rec.Body.String())
	}
	if got, _ := tokens.ListTokens(context.Background(), user.ID); len(got) != 0 {
		t.Fatalf("token not deleted: %v", got)
	}
}
