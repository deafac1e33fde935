package postgres

import (
	"context"
	"errors"
	"fmt"

	"shootoutserver/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type StatsStore struct {
	pool *pgxpool.Pool
}

func NewStatsStore(pool *pgxpool.Pool) *StatsStore {
	return &StatsStore{pool: pool}
}

// ApplyResult folds one finished match into the user's accumulator,
// creating the row lazily on first completion. Streak bookkeeping is
// done in SQL so the read-modify-write happens inside the single
// statement.
func (s *StatsStore) ApplyResult(ctx context.Context, userID string, d domain.StatsDelta) (domain.UserStats, error) {
	const q = `
		INSERT INTO user_stats (
			user_id, total_points, goals_scored, saves_made,
			games_played, games_won, games_lost, games_drawn,
			current_streak, best_streak, perfect_games, updated_at
		)
		VALUES ($1, $2, $3, $4, 1, $5, $6, $7, $5, $5, $8, now())
		ON CONFLICT (user_id) DO UPDATE SET
			total_points = user_stats.total_points + EXCLUDED.total_points,
			goals_scored = user_stats.goals_scored + EXCLUDED.goals_scored,
			saves_made = user_stats.saves_made + EXCLUDED.saves_made,
			games_played = user_stats.games_played + 1,
			games_won = user_stats.games_won + EXCLUDED.games_won,
			games_lost = user_stats.games_lost + EXCLUDED.games_lost,
			games_drawn = user_stats.games_drawn + EXCLUDED.games_drawn,
			current_streak = CASE WHEN EXCLUDED.games_won > 0 THEN user_stats.current_streak + 1 ELSE 0 END,
			best_streak = GREATEST(user_stats.best_streak, CASE WHEN EXCLUDED.games_won > 0 THEN user_stats.current_streak + 1 ELSE 0 END),
			perfect_games = user_stats.perfect_games + EXCLUDED.perfect_games,
			updated_at = now()
		RETURNING user_id, total_points, goals_scored, saves_made,
			games_played, games_won, games_lost, games_drawn,
			current_streak, best_streak, perfect_games, updated_at
	`

	won, lost, drawn, perfect := 0, 0, 0, 0
	if d.Won {
		won = 1
	}
	if d.Lost {
		lost = 1
	}
	if d.Drawn {
		drawn = 1
	}
	if d.Perfect {
		perfect = 1
	}

	return s.scanStats(s.pool.QueryRow(ctx, q, userID, d.Points, d.Goals, d.Saves, won, lost, drawn, perfect))
}

func (s *StatsStore) GetForUser(ctx context.Context, userID string) (domain.UserStats, error) {
	const q = `
		SELECT user_id, total_points, goals_scored, saves_made,
			games_played, games_won, games_lost, games_drawn,
			current_streak, best_streak, perfect_games, updated_at
		FROM user_stats
		WHERE user_id = $1
	`
	st, err := s.scanStats(s.pool.QueryRow(ctx, q, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.UserStats{}, domain.ErrNotFound
		}
		return domain.UserStats{}, err
	}
	return st, nil
}

func (s *StatsStore) scanStats(row pgx.Row) (domain.UserStats, error) {
	var (
		st     domain.UserStats
		idUUID pgtype.UUID
	)
	err := row.Scan(
		&idUUID, &st.TotalPoints, &st.GoalsScored, &st.SavesMade,
		&st.GamesPlayed, &st.GamesWon, &st.GamesLost, &st.GamesDrawn,
		&st.CurrentStreak, &st.BestStreak, &st.PerfectGames, &st.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.UserStats{}, err
		}
		return domain.UserStats{}, fmt.Errorf("scan user stats: %w", err)
	}
	st.UserID = uuidOrEmpty(idUUID)
	return st, nil
}
