// Package game holds the pure shootout rules: resolving two committed
// move sequences into round outcomes and scoring a finished result.
package game

import (
	"fmt"

	"shootoutserver/internal/domain"
)

type Round struct {
	Shot     domain.Direction `json:"shot"`
	Save     domain.Direction `json:"save"`
	Goal     bool             `json:"goal"`
	PointsTo domain.Role      `json:"points_to"`
}

// Result is derived from the two committed move sets and is never
// persisted; recomputing it from the same moves always yields the same
// value. Winner is nil on a draw.
type Result struct {
	Rounds       [domain.RoundCount]Round `json:"rounds"`
	ShooterSlot  domain.SlotID            `json:"shooter_slot"`
	Winner       *domain.SlotID           `json:"winner,omitempty"`
	ShooterScore int                      `json:"shooter_score"`
	KeeperScore  int                      `json:"keeper_score"`
}

// Resolve plays the five rounds. A round is a goal exactly when the
// shot and save directions differ; every round awards one point, to the
// shooter on a goal and to the keeper on a save.
func Resolve(shots, saves [domain.RoundCount]domain.Direction) ([domain.RoundCount]Round, int, int) {
	var rounds [domain.RoundCount]Round
	shooterScore, keeperScore := 0, 0
	for i := range shots {
		goal := shots[i] != saves[i]
		pointsTo := domain.RoleKeeper
		if goal {
			pointsTo = domain.RoleShooter
			shooterScore++
		} else {
			keeperScore++
		}
		rounds[i] = Round{
			Shot:     shots[i],
			Save:     saves[i],
			Goal:     goal,
			PointsTo: pointsTo,
		}
	}
	return rounds, shooterScore, keeperScore
}

// ResolveMatch maps the match's two committed slots onto shooter and
// keeper via their role tags and resolves the shootout. It fails when
// either slot is missing moves or the roles are not complementary.
func ResolveMatch(m domain.Match) (Result, error) {
	if !m.BothMoved() {
		return Result{}, fmt.Errorf("resolve match %s: both slots must have committed moves", m.ID)
	}
	if m.SlotA.Moves.Role == m.SlotB.Moves.Role {
		return Result{}, fmt.Errorf("resolve match %s: both slots committed as %s: %w", m.ID, m.SlotA.Moves.Role, domain.ErrRoleConflict)
	}

	shooterSlot := domain.SlotA
	if m.SlotB.Moves.Role == domain.RoleShooter {
		shooterSlot = domain.SlotB
	}
	shots := m.Slot(shooterSlot).Moves.Moves
	saves := m.Slot(shooterSlot.Other()).Moves.Moves

	rounds, shooterScore, keeperScore := Resolve(shots, saves)

	var winner *domain.SlotID
	switch {
	case shooterScore > keeperScore:
		w := shooterSlot
		winner = &w
	case keeperScore > shooterScore:
		w := shooterSlot.Other()
		winner = &w
	}

	return Result{
		Rounds:       rounds,
		ShooterSlot:  shooterSlot,
		Winner:       winner,
		ShooterScore: shooterScore,
		KeeperScore:  keeperScore,
	}, nil
}
