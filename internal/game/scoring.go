package game

import "shootoutserver/internal/domain"

const (
	pointsPerGoal = 10
	pointsPerSave = 15
	winBonus      = 50
	drawBonus     = 20
	perfectBonus  = 100
)

// PlayerScore is one participant's view of a finished result.
type PlayerScore struct {
	Slot    domain.SlotID `json:"slot"`
	Role    domain.Role   `json:"role"`
	Goals   int           `json:"goals"`
	Saves   int           `json:"saves"`
	Points  int           `json:"points"`
	Won     bool          `json:"won"`
	Drawn   bool          `json:"drawn"`
	Perfect bool          `json:"perfect"`
}

// ScoreSlot computes the points a slot earned from a finished result:
// 10 per goal scored, 15 per save made, +50 on a win, +20 on a draw,
// and +100 when all five rounds went the player's way.
func ScoreSlot(res Result, slot domain.SlotID) PlayerScore {
	sc := PlayerScore{Slot: slot, Role: domain.RoleKeeper}
	if slot == res.ShooterSlot {
		sc.Role = domain.RoleShooter
		sc.Goals = res.ShooterScore
	} else {
		sc.Saves = res.KeeperScore
	}

	sc.Won = res.Winner != nil && *res.Winner == slot
	sc.Drawn = res.Winner == nil
	sc.Perfect = sc.Goals == domain.RoundCount || sc.Saves == domain.RoundCount

	sc.Points = pointsPerGoal*sc.Goals + pointsPerSave*sc.Saves
	switch {
	case sc.Won:
		sc.Points += winBonus
	case sc.Drawn:
		sc.Points += drawBonus
	}
	if sc.Perfect {
		sc.Points += perfectBonus
	}
	return sc
}

// Delta converts a player's score into the stats accumulator increment
// for a single finished match.
func (sc PlayerScore) Delta() domain.StatsDelta {
	return domain.StatsDelta{
		Points:  sc.Points,
		Goals:   sc.Goals,
		Saves:   sc.Saves,
		Won:     sc.Won,
		Lost:    !sc.Won && !sc.Drawn,
		Drawn:   sc.Drawn,
		Perfect: sc.Perfect,
	}
}
