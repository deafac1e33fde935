package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shootoutserver/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MatchesStore struct {
	pool *pgxpool.Pool
}

func NewMatchesStore(pool *pgxpool.Pool) *MatchesStore {
	return &MatchesStore{pool: pool}
}

func (s *MatchesStore) CreateMatch(ctx context.Context, m domain.Match) error {
	const q = `
		INSERT INTO matches (
			id,
			slot_a_player_id, slot_a_email, slot_a_username, slot_a_avatar, slot_a_role, slot_a_moves,
			slot_b_player_id, slot_b_email, slot_b_username, slot_b_avatar, slot_b_role, slot_b_moves,
			status, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	movesA, err := encodeMovesOrNil(m.SlotA.Moves)
	if err != nil {
		return fmt.Errorf("encode slot a moves: %w", err)
	}
	movesB, err := encodeMovesOrNil(m.SlotB.Moves)
	if err != nil {
		return fmt.Errorf("encode slot b moves: %w", err)
	}

	createdAt := m.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.pool.Exec(ctx, q,
		m.ID,
		nullIfEmpty(m.SlotA.PlayerID), nullIfEmpty(m.SlotA.Email), nullIfEmpty(m.SlotA.Username), nullIfEmpty(m.SlotA.AvatarID), roleOrNil(m.SlotA.AssignedRole), movesA,
		nullIfEmpty(m.SlotB.PlayerID), nullIfEmpty(m.SlotB.Email), nullIfEmpty(m.SlotB.Username), nullIfEmpty(m.SlotB.AvatarID), roleOrNil(m.SlotB.AssignedRole), movesB,
		string(domain.MatchStatusWaiting), createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert match: %w", err)
	}
	return nil
}

func (s *MatchesStore) GetMatch(ctx context.Context, matchID string) (domain.Match, error) {
	if _, err := uuid.Parse(matchID); err != nil {
		return domain.Match{}, domain.ErrNotFound
	}

	const q = `
		SELECT id,
			slot_a_player_id, slot_a_email, slot_a_username, slot_a_avatar, slot_a_role, slot_a_moves,
			slot_b_player_id, slot_b_email, slot_b_username, slot_b_avatar, slot_b_role, slot_b_moves,
			status, winner, created_at
		FROM matches
		WHERE id = $1
	`

	var (
		idUUID             pgtype.UUID
		aPlayer, aEmail    pgtype.Text
		aUsername, aAvatar pgtype.Text
		aRole              pgtype.Text
		aMoves             []byte
		bPlayer, bEmail    pgtype.Text
		bUsername, bAvatar pgtype.Text
		bRole              pgtype.Text
		bMoves             []byte
		status             string
		winner             pgtype.Text
		createdAt          time.Time
	)
	err := s.pool.QueryRow(ctx, q, matchID).Scan(
		&idUUID,
		&aPlayer, &aEmail, &aUsername, &aAvatar, &aRole, &aMoves,
		&bPlayer, &bEmail, &bUsername, &bAvatar, &bRole, &bMoves,
		&status, &winner, &createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Match{}, domain.ErrNotFound
		}
		return domain.Match{}, fmt.Errorf("get match: %w", err)
	}

	slotAMoves, err := movesOrNil(aMoves)
	if err != nil {
		return domain.Match{}, fmt.Errorf("match %s slot a: %w", matchID, err)
	}
	slotBMoves, err := movesOrNil(bMoves)
	if err != nil {
		return domain.Match{}, fmt.Errorf("match %s slot b: %w", matchID, err)
	}

	return domain.Match{
		ID: uuidOrEmpty(idUUID),
		SlotA: domain.Slot{
			PlayerID:     textOrEmpty(aPlayer),
			Email:        textOrEmpty(aEmail),
			Username:     textOrEmpty(aUsername),
			AvatarID:     textOrEmpty(aAvatar),
			AssignedRole: domain.Role(textOrEmpty(aRole)),
			Moves:        slotAMoves,
		},
		SlotB: domain.Slot{
			PlayerID:     textOrEmpty(bPlayer),
			Email:        textOrEmpty(bEmail),
			Username:     textOrEmpty(bUsername),
			AvatarID:     textOrEmpty(bAvatar),
			AssignedRole: domain.Role(textOrEmpty(bRole)),
			Moves:        slotBMoves,
		},
		Status:    domain.MatchStatus(status),
		Winner:    winnerPtr(winner),
		CreatedAt: createdAt,
	}, nil
}

// ClaimSlotB fills slot B's identity. The write succeeds only while the
// slot is unclaimed or already belongs to the same email, so two racing
// join calls cannot both take the seat.
func (s *MatchesStore) ClaimSlotB(ctx context.Context, matchID string, slot domain.Slot) (bool, error) {
	const q = `
		UPDATE matches
		SET slot_b_player_id = $2, slot_b_email = $3, slot_b_username = $4, slot_b_avatar = $5
		WHERE id = $1
			AND status = 'waiting'
			AND (slot_b_email IS NULL OR lower(slot_b_email) = lower($3))
			AND slot_b_moves IS NULL
	`
	ct, err := s.pool.Exec(ctx, q, matchID,
		nullIfEmpty(slot.PlayerID), slot.Email, nullIfEmpty(slot.Username), nullIfEmpty(slot.AvatarID))
	if err != nil {
		return false, fmt.Errorf("claim slot b: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

// ReplaceSlotB swaps slot B's identity regardless of who held it, as
// long as no moves were committed there yet.
func (s *MatchesStore) ReplaceSlotB(ctx context.Context, matchID string, slot domain.Slot) (bool, error) {
	const q = `
		UPDATE matches
		SET slot_b_player_id = $2, slot_b_email = $3, slot_b_username = $4, slot_b_avatar = $5
		WHERE id = $1 AND status = 'waiting' AND slot_b_moves IS NULL
	`
	ct, err := s.pool.Exec(ctx, q, matchID,
		nullIfEmpty(slot.PlayerID), slot.Email, nullIfEmpty(slot.Username), nullIfEmpty(slot.AvatarID))
	if err != nil {
		return false, fmt.Errorf("replace slot b: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

func (s *MatchesStore) SetInvitedEmail(ctx context.Context, matchID, email string) (bool, error) {
	const q = `
		UPDATE matches
		SET slot_b_email = $2
		WHERE id = $1 AND status = 'waiting' AND slot_b_moves IS NULL
	`
	ct, err := s.pool.Exec(ctx, q, matchID, email)
	if err != nil {
		return false, fmt.Errorf("set invited email: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

func (s *MatchesStore) DeleteIfDeclinable(ctx context.Context, matchID, requesterEmail string) (bool, error) {
	const q = `
		DELETE FROM matches
		WHERE id = $1 AND status = 'waiting' AND lower(slot_b_email) = lower($2)
	`
	ct, err := s.pool.Exec(ctx, q, matchID, requesterEmail)
	if err != nil {
		return false, fmt.Errorf("decline challenge: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

func (s *MatchesStore) DeleteIfCancelable(ctx context.Context, matchID, requesterEmail string) (bool, error) {
	const q = `
		DELETE FROM matches
		WHERE id = $1 AND status = 'waiting' AND lower(slot_a_email) = lower($2) AND slot_b_moves IS NULL
	`
	ct, err := s.pool.Exec(ctx, q, matchID, requesterEmail)
	if err != nil {
		return false, fmt.Errorf("cancel challenge: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

// CommitMoves writes a slot's move set only while the slot's moves
// column is still NULL. Zero rows affected means another request
// committed first; stored data is left untouched either way.
func (s *MatchesStore) CommitMoves(ctx context.Context, matchID string, slot domain.SlotID, pm domain.PlayerMoves) (bool, error) {
	raw, err := pm.Encode()
	if err != nil {
		return false, err
	}

	var q string
	switch slot {
	case domain.SlotA:
		q = `UPDATE matches SET slot_a_moves = $2 WHERE id = $1 AND slot_a_moves IS NULL`
	case domain.SlotB:
		q = `UPDATE matches SET slot_b_moves = $2 WHERE id = $1 AND slot_b_moves IS NULL`
	default:
		return false, fmt.Errorf("commit moves: unknown slot %q", slot)
	}

	ct, err := s.pool.Exec(ctx, q, matchID, raw)
	if err != nil {
		return false, fmt.Errorf("commit moves: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

// FinishMatch flips a waiting match to finished. The status condition
// makes the transition single-shot: of two racing submit-moves calls
// that both observe a complete match, only one write lands, and only
// that caller goes on to apply stats.
func (s *MatchesStore) FinishMatch(ctx context.Context, matchID string, winner *domain.SlotID) (bool, error) {
	const q = `
		UPDATE matches
		SET status = 'finished', winner = $2
		WHERE id = $1 AND status = 'waiting'
	`
	ct, err := s.pool.Exec(ctx, q, matchID, winnerOrNil(winner))
	if err != nil {
		return false, fmt.Errorf("finish match: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

// FindOpenMatchBetween returns the id of a non-finished, still
// incomplete match linking the two emails in either direction, or ""
// when none exists.
func (s *MatchesStore) FindOpenMatchBetween(ctx context.Context, emailA, emailB string) (string, error) {
	const q = `
		SELECT id
		FROM matches
		WHERE status = 'waiting'
			AND (slot_b_email IS NULL OR slot_a_moves IS NULL OR slot_b_moves IS NULL)
			AND (
				(lower(slot_a_email) = lower($1) AND lower(slot_b_email) = lower($2))
				OR (lower(slot_a_email) = lower($2) AND lower(slot_b_email) = lower($1))
			)
		LIMIT 1
	`
	var idUUID pgtype.UUID
	err := s.pool.QueryRow(ctx, q, emailA, emailB).Scan(&idUUID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("find open match: %w", err)
	}
	return uuidOrEmpty(idUUID), nil
}
