package service

import (
	"context"
	"errors"
	"fmt"

	"shootoutserver/internal/domain"
	"shootoutserver/internal/game"
)

type StatsStore interface {
	ApplyResult(ctx context.Context, userID string, d domain.StatsDelta) (domain.UserStats, error)
	GetForUser(ctx context.Context, userID string) (domain.UserStats, error)
}

type StatsService struct {
	Stats StatsStore
	Users UsersStore
}

func (s *StatsService) Record(ctx context.Context, user domain.User, score game.PlayerScore) error {
	if _, err := s.Stats.ApplyResult(ctx, user.ID, score.Delta()); err != nil {
		return fmt.Errorf("apply stats for %s: %w", user.ID, err)
	}
	return nil
}

// SummaryByEmail returns the accumulator for a user. An account that
// has not finished a match yet reads as all zeroes, since the row is
// only created on first completion.
func (s *StatsService) SummaryByEmail(ctx context.Context, email string) (domain.UserStats, error) {
	user, err := s.Users.FindUserByEmail(ctx, email)
	if err != nil {
		return domain.UserStats{}, err
	}
	st, err := s.Stats.GetForUser(ctx, user.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.UserStats{UserID: user.ID}, nil
		}
		return domain.UserStats{}, err
	}
	return st, nil
}
