package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

type Direction string

const (
	DirectionLeft   Direction = "left"
	DirectionCenter Direction = "center"
	DirectionRight  Direction = "right"
)

func (d Direction) Valid() bool {
	switch d {
	case DirectionLeft, DirectionCenter, DirectionRight:
		return true
	}
	return false
}

type Role string

const (
	RoleShooter Role = "shooter"
	RoleKeeper  Role = "keeper"
)

func (r Role) Valid() bool {
	return r == RoleShooter || r == RoleKeeper
}

func (r Role) Opposite() Role {
	if r == RoleShooter {
		return RoleKeeper
	}
	return RoleShooter
}

// RoundCount is the fixed number of shot/save rounds in a shootout.
const RoundCount = 5

// MovesVersion is the current wire version for serialized move sets.
// Stored payloads with any other version are rejected rather than
// silently deserialized into an inconsistent PlayerMoves.
const MovesVersion = 1

// PlayerMoves is a slot's committed five-move sequence plus the role it
// was played in. Immutable once committed.
type PlayerMoves struct {
	Version int                   `json:"v"`
	Role    Role                  `json:"role"`
	Moves   [RoundCount]Direction `json:"moves"`
}

func (pm PlayerMoves) Validate() error {
	fields := map[string]string{}
	if !pm.Role.Valid() {
		fields["role"] = "must be shooter or keeper"
	}
	for i, d := range pm.Moves {
		if !d.Valid() {
			fields[fmt.Sprintf("moves[%d]", i)] = "must be left, center or right"
		}
	}
	if len(fields) > 0 {
		return NewValidationError(fields)
	}
	return nil
}

func (pm PlayerMoves) Encode() ([]byte, error) {
	if pm.Version == 0 {
		pm.Version = MovesVersion
	}
	if err := pm.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(pm)
}

// DecodeMoves parses a serialized move set and rejects unknown versions,
// unknown roles and malformed directions.
func DecodeMoves(raw []byte) (*PlayerMoves, error) {
	var pm PlayerMoves
	if err := json.Unmarshal(raw, &pm); err != nil {
		return nil, fmt.Errorf("decode moves: %w", err)
	}
	if pm.Version != MovesVersion {
		return nil, fmt.Errorf("decode moves: unsupported version %d", pm.Version)
	}
	if err := pm.Validate(); err != nil {
		return nil, fmt.Errorf("decode moves: %w", err)
	}
	return &pm, nil
}

type SlotID string

const (
	SlotA SlotID = "slot_a"
	SlotB SlotID = "slot_b"
)

func (s SlotID) Other() SlotID {
	if s == SlotA {
		return SlotB
	}
	return SlotA
}

// Slot is one of the two participant positions in a match. AssignedRole
// is set on revenge matches to pin which role the occupant must play;
// it is empty otherwise.
type Slot struct {
	PlayerID     string       `json:"player_id,omitempty"`
	Email        string       `json:"email,omitempty"`
	Username     string       `json:"username,omitempty"`
	AvatarID     string       `json:"avatar_id,omitempty"`
	AssignedRole Role         `json:"assigned_role,omitempty"`
	Moves        *PlayerMoves `json:"moves,omitempty"`
}

func (s Slot) Occupied() bool {
	return s.Email != "" || s.PlayerID != ""
}

func (s Slot) HasMoves() bool {
	return s.Moves != nil
}

type MatchStatus string

const (
	MatchStatusWaiting  MatchStatus = "waiting"
	MatchStatusFinished MatchStatus = "finished"
)

// Match is the shared record two polling clients mutate. Winner is nil
// while the match is waiting (undecided) and nil on a finished match
// only when the match was drawn; Status disambiguates the two.
type Match struct {
	ID        string      `json:"id"`
	SlotA     Slot        `json:"slot_a"`
	SlotB     Slot        `json:"slot_b"`
	Status    MatchStatus `json:"status"`
	Winner    *SlotID     `json:"winner,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

func (m Match) Slot(id SlotID) Slot {
	if id == SlotA {
		return m.SlotA
	}
	return m.SlotB
}

func (m Match) Finished() bool {
	return m.Status == MatchStatusFinished
}

// BothMoved reports whether both slots hold committed move sets, i.e.
// the match is ready to resolve.
func (m Match) BothMoved() bool {
	return m.SlotA.HasMoves() && m.SlotB.HasMoves()
}
