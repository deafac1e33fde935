package domain

import "time"

// UserStats is the per-user accumulator. Counters only ever grow; a
// finished match contributes to each participant exactly once.
type UserStats struct {
	UserID        string    `json:"user_id"`
	TotalPoints   int       `json:"total_points"`
	GoalsScored   int       `json:"goals_scored"`
	SavesMade     int       `json:"saves_made"`
	GamesPlayed   int       `json:"games_played"`
	GamesWon      int       `json:"games_won"`
	GamesLost     int       `json:"games_lost"`
	GamesDrawn    int       `json:"games_drawn"`
	CurrentStreak int       `json:"current_streak"`
	BestStreak    int       `json:"best_streak"`
	PerfectGames  int       `json:"perfect_games"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// StatsDelta is one finished match's contribution to a user's stats.
type StatsDelta struct {
	Points  int
	Goals   int
	Saves   int
	Won     bool
	Lost    bool
	Drawn   bool
	Perfect bool
}
