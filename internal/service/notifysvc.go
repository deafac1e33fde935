package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"shootoutserver/internal/domain"
	"shootoutserver/internal/email"
	"shootoutserver/internal/notifications"
)

type NotificationTokensStore interface {
	UpsertToken(ctx context.Context, userID, token, platform string, when time.Time) (domain.NotificationToken, error)
	DeleteToken(ctx context.Context, userID, token string) error
	ListTokens(ctx context.Context, userID string) ([]domain.NotificationToken, error)
}

type PushSender interface {
	Send(ctx context.Context, token string, msg notifications.Message) error
}

type EmailSender interface {
	Send(msg email.Message) error
}

// NotificationService delivers challenge invites over email and push.
// Both channels are best-effort: delivery failures are logged and
// swallowed because the match state change is the authoritative
// outcome.
type NotificationService struct {
	Tokens    NotificationTokensStore
	Users     UsersStore
	Push      PushSender
	Email     EmailSender
	FromName  string
	FromEmail string
	PublicURL string
	Logger    *slog.Logger
	Now       func() time.Time
}

func (s *NotificationService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *NotificationService) RegisterToken(ctx context.Context, emailAddr, token, platform string) (domain.NotificationToken, error) {
	if s.Tokens == nil || s.Users == nil {
		return domain.NotificationToken{}, domain.ErrUnavailable
	}
	emailAddr = strings.TrimSpace(emailAddr)
	token = strings.TrimSpace(token)
	platform = strings.TrimSpace(strings.ToLower(platform))
	if emailAddr == "" || token == "" || platform == "" {
		return domain.NotificationToken{}, domain.NewValidationError(map[string]string{
			"email": "required", "token": "required", "platform": "required",
		})
	}
	switch platform {
	case "android", "ios", "web":
	default:
		return domain.NotificationToken{}, domain.NewValidationError(map[string]string{"platform": "must be ios, android or web"})
	}

	user, err := s.Users.FindUserByEmail(ctx, emailAddr)
	if errors.Is(err, domain.ErrNotFound) {
		user, err = s.Users.CreateUser(ctx, emailAddr, "")
	}
	if err != nil {
		return domain.NotificationToken{}, err
	}

	when := s.nowUTC()
	return s.Tokens.UpsertToken(ctx, user.ID, token, platform, when)
}

func (s *NotificationService) DeleteToken(ctx context.Context, emailAddr, token string) error {
	if s.Tokens == nil || s.Users == nil {
		return domain.ErrUnavailable
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.NewValidationError(map[string]string{"token": "required"})
	}
	user, err := s.Users.FindUserByEmail(ctx, emailAddr)
	if err != nil {
		return err
	}
	return s.Tokens.DeleteToken(ctx, user.ID, token)
}

// NotifyChallenge implements ChallengeNotifier.
func (s *NotificationService) NotifyChallenge(ctx context.Context, n ChallengeNotification) {
	s.sendChallengeEmail(n)
	s.sendChallengePush(ctx, n)
}

func (s *NotificationService) sendChallengeEmail(n ChallengeNotification) {
	if s.Email == nil {
		return
	}
	challenger := n.ChallengerName
	if challenger == "" {
		challenger = "An opponent"
	}
	link := strings.TrimRight(s.PublicURL, "/") + "/match?matchId=" + n.MatchID
	body := fmt.Sprintf(
		"%s challenged you to a penalty shootout!\n\nPick your five moves here:\n%s\n\nYou have 24 hours to respond.\n",
		challenger, link,
	)
	err := s.Email.Send(email.Message{
		FromName:  s.FromName,
		FromEmail: s.FromEmail,
		ToEmail:   n.RecipientEmail,
		Subject:   challenger + " challenged you to a penalty shootout",
		TextBody:  body,
	})
	if err != nil {
		s.logger().Error("challenge email failed", "err", err, "match_id", n.MatchID)
	}
}

func (s *NotificationService) sendChallengePush(ctx context.Context, n ChallengeNotification) {
	if s.Push == nil || s.Tokens == nil || s.Users == nil {
		return
	}
	user, err := s.Users.FindUserByEmail(ctx, n.RecipientEmail)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger().Error("challenge push recipient lookup failed", "err", err, "match_id", n.MatchID)
		}
		return
	}
	tokens, err := s.Tokens.ListTokens(ctx, user.ID)
	if err != nil {
		s.logger().Error("challenge push list tokens failed", "err", err, "user_id", user.ID)
		return
	}

	payload := map[string]string{
		"type":       "challenge",
		"match_id":   n.MatchID,
		"challenger": n.ChallengerName,
	}
	msg := notifications.Message{
		Data: payload,
		Notification: &notifications.Notification{
			Title: "Penalty shootout challenge",
			Body:  n.ChallengerName + " challenged you. You have 24 hours to respond.",
		},
	}
	for _, t := range tokens {
		if err := s.Push.Send(ctx, t.Token, msg); err != nil {
			if errors.Is(err, notifications.ErrInvalidToken) {
				if delErr := s.Tokens.DeleteToken(ctx, user.ID, t.Token); delErr != nil {
					s.logger().Error("delete invalid token failed", "err", delErr, "user_id", user.ID)
				}
				continue
			}
			s.logger().Error("challenge push failed", "err", err, "user_id", user.ID)
		}
	}
}

func (s *NotificationService) nowUTC() time.Time {
	if s.Now != nil {
		return s.Now().UTC().Truncate(time.Millisecond)
	}
	return time.Now().UTC().Truncate(time.Millisecond)
}
