package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"shootoutserver/internal/domain"
	"shootoutserver/internal/game"

	"github.com/google/uuid"
)

type MatchesStore interface {
	CreateMatch(ctx context.Context, m domain.Match) error
	GetMatch(ctx context.Context, matchID string) (domain.Match, error)
	ClaimSlotB(ctx context.Context, matchID string, slot domain.Slot) (bool, error)
	ReplaceSlotB(ctx context.Context, matchID string, slot domain.Slot) (bool, error)
	SetInvitedEmail(ctx context.Context, matchID, email string) (bool, error)
	DeleteIfDeclinable(ctx context.Context, matchID, requesterEmail string) (bool, error)
	DeleteIfCancelable(ctx context.Context, matchID, requesterEmail string) (bool, error)
	CommitMoves(ctx context.Context, matchID string, slot domain.SlotID, pm domain.PlayerMoves) (bool, error)
	FinishMatch(ctx context.Context, matchID string, winner *domain.SlotID) (bool, error)
	FindOpenMatchBetween(ctx context.Context, emailA, emailB string) (string, error)
}

type UsersStore interface {
	FindUserByEmail(ctx context.Context, email string) (domain.User, error)
	CreateUser(ctx context.Context, email, username string) (domain.User, error)
}

type StatsRecorder interface {
	Record(ctx context.Context, user domain.User, score game.PlayerScore) error
}

type ChallengeNotification struct {
	RecipientEmail string
	MatchID        string
	ChallengerName string
}

// ChallengeNotifier delivers invites best-effort; implementations must
// not fail the action that triggered them.
type ChallengeNotifier interface {
	NotifyChallenge(ctx context.Context, n ChallengeNotification)
}

// MatchService sequences the match lifecycle. Each action is one typed
// method; every write goes through a conditional statement in the store
// so two independently polling clients cannot clobber each other.
type MatchService struct {
	Matches  MatchesStore
	Users    UsersStore
	Stats    StatsRecorder
	Notifier ChallengeNotifier
	Logger   *slog.Logger
	Now      func() time.Time
	NewID    func() string
}

func (s *MatchService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *MatchService) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *MatchService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

type CreateParams struct {
	PlayerID string
	Email    string
	Username string
	AvatarID string
	Moves    *domain.PlayerMoves
}

func (s *MatchService) Create(ctx context.Context, p CreateParams) (domain.Match, error) {
	if err := requireIdentity(p.Email, p.Username); err != nil {
		return domain.Match{}, err
	}
	if p.Moves != nil {
		if p.Moves.Version == 0 {
			p.Moves.Version = domain.MovesVersion
		}
		if err := p.Moves.Validate(); err != nil {
			return domain.Match{}, err
		}
	}

	m := domain.Match{
		ID: s.newID(),
		SlotA: domain.Slot{
			PlayerID: strings.TrimSpace(p.PlayerID),
			Email:    strings.TrimSpace(p.Email),
			Username: strings.TrimSpace(p.Username),
			AvatarID: strings.TrimSpace(p.AvatarID),
			Moves:    p.Moves,
		},
		Status:    domain.MatchStatusWaiting,
		CreatedAt: s.now().UTC(),
	}
	if err := s.Matches.CreateMatch(ctx, m); err != nil {
		return domain.Match{}, err
	}
	return m, nil
}

// Get serves the polling read: the stored match plus, once finished,
// the result recomputed from the two committed move sets.
func (s *MatchService) Get(ctx context.Context, matchID string) (domain.Match, *game.Result, error) {
	m, err := s.Matches.GetMatch(ctx, matchID)
	if err != nil {
		return domain.Match{}, nil, err
	}
	if !m.Finished() || !m.BothMoved() {
		return m, nil, nil
	}
	res, err := game.ResolveMatch(m)
	if err != nil {
		return domain.Match{}, nil, err
	}
	return m, &res, nil
}

type JoinParams struct {
	MatchID  string
	PlayerID string
	Email    string
	Username string
	AvatarID string
}

func (s *MatchService) Join(ctx context.Context, p JoinParams) (domain.Match, error) {
	if err := requireIdentity(p.Email, p.Username); err != nil {
		return domain.Match{}, err
	}
	if _, err := s.Matches.GetMatch(ctx, p.MatchID); err != nil {
		return domain.Match{}, err
	}

	ok, err := s.Matches.ClaimSlotB(ctx, p.MatchID, domain.Slot{
		PlayerID: strings.TrimSpace(p.PlayerID),
		Email:    strings.TrimSpace(p.Email),
		Username: strings.TrimSpace(p.Username),
		AvatarID: strings.TrimSpace(p.AvatarID),
	})
	if err != nil {
		return domain.Match{}, err
	}
	if !ok {
		return domain.Match{}, domain.ErrMatchFull
	}
	return s.Matches.GetMatch(ctx, p.MatchID)
}

// TakeoverPlayerB replaces slot B's identity. When slot B already
// committed moves the guard makes the call a silent no-op and the
// current match is returned unchanged.
func (s *MatchService) TakeoverPlayerB(ctx context.Context, p JoinParams) (domain.Match, error) {
	if err := requireIdentity(p.Email, p.Username); err != nil {
		return domain.Match{}, err
	}
	if _, err := s.Matches.GetMatch(ctx, p.MatchID); err != nil {
		return domain.Match{}, err
	}

	ok, err := s.Matches.ReplaceSlotB(ctx, p.MatchID, domain.Slot{
		PlayerID: strings.TrimSpace(p.PlayerID),
		Email:    strings.TrimSpace(p.Email),
		Username: strings.TrimSpace(p.Username),
		AvatarID: strings.TrimSpace(p.AvatarID),
	})
	if err != nil {
		return domain.Match{}, err
	}
	if !ok {
		s.logger().Info("takeover skipped, slot b already moved", "match_id", p.MatchID)
	}
	return s.Matches.GetMatch(ctx, p.MatchID)
}

type InviteParams struct {
	MatchID string
	Email   string
}

func (s *MatchService) InvitePlayer(ctx context.Context, p InviteParams) error {
	email := strings.TrimSpace(p.Email)
	if email == "" {
		return domain.NewValidationError(map[string]string{"email": "required"})
	}

	m, err := s.Matches.GetMatch(ctx, p.MatchID)
	if err != nil {
		return err
	}
	if m.Finished() {
		return domain.ErrNotFound
	}

	openID, err := s.Matches.FindOpenMatchBetween(ctx, m.SlotA.Email, email)
	if err != nil {
		return err
	}
	if openID != "" && openID != m.ID {
		return domain.ErrChallengeExists
	}

	ok, err := s.Matches.SetInvitedEmail(ctx, p.MatchID, email)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrMatchInProgress
	}

	if s.Notifier != nil {
		s.Notifier.NotifyChallenge(ctx, ChallengeNotification{
			RecipientEmail: email,
			MatchID:        m.ID,
			ChallengerName: m.SlotA.Username,
		})
	}
	return nil
}

type DeclineParams struct {
	MatchID string
	Email   string
}

func (s *MatchService) DeclineChallenge(ctx context.Context, p DeclineParams) error {
	m, err := s.Matches.GetMatch(ctx, p.MatchID)
	if err != nil {
		return err
	}
	if !strings.EqualFold(m.SlotB.Email, strings.TrimSpace(p.Email)) || m.SlotB.Email == "" {
		return domain.ErrForbidden
	}

	ok, err := s.Matches.DeleteIfDeclinable(ctx, p.MatchID, p.Email)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	return nil
}

type CancelParams struct {
	MatchID string
	Email   string
}

func (s *MatchService) CancelChallenge(ctx context.Context, p CancelParams) error {
	m, err := s.Matches.GetMatch(ctx, p.MatchID)
	if err != nil {
		return err
	}
	if !strings.EqualFold(m.SlotA.Email, strings.TrimSpace(p.Email)) || m.SlotA.Email == "" {
		return domain.ErrForbidden
	}

	ok, err := s.Matches.DeleteIfCancelable(ctx, p.MatchID, p.Email)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrMatchInProgress
	}
	return nil
}

type RevengeParams struct {
	MatchID         string
	PlayerAEmail    string
	PlayerBEmail    string
	PlayerAUsername string
	PlayerBUsername string
	PlayerAAvatar   string
	PlayerBAvatar   string
}

// CreateRevenge starts a fresh match between the same two players with
// shooter and keeper swapped relative to the original. The original
// match is read only, never mutated.
func (s *MatchService) CreateRevenge(ctx context.Context, p RevengeParams) (domain.Match, error) {
	fields := map[string]string{}
	if strings.TrimSpace(p.PlayerAEmail) == "" {
		fields["playerAEmail"] = "required"
	}
	if strings.TrimSpace(p.PlayerBEmail) == "" {
		fields["playerBEmail"] = "required"
	}
	if len(fields) > 0 {
		return domain.Match{}, domain.NewValidationError(fields)
	}

	orig, err := s.Matches.GetMatch(ctx, p.MatchID)
	if err != nil {
		return domain.Match{}, err
	}

	m := domain.Match{
		ID: s.newID(),
		SlotA: domain.Slot{
			Email:        strings.TrimSpace(p.PlayerAEmail),
			Username:     strings.TrimSpace(p.PlayerAUsername),
			AvatarID:     strings.TrimSpace(p.PlayerAAvatar),
			AssignedRole: revengeRole(orig, p.PlayerAEmail),
		},
		SlotB: domain.Slot{
			Email:        strings.TrimSpace(p.PlayerBEmail),
			Username:     strings.TrimSpace(p.PlayerBUsername),
			AvatarID:     strings.TrimSpace(p.PlayerBAvatar),
			AssignedRole: revengeRole(orig, p.PlayerBEmail),
		},
		Status:    domain.MatchStatusWaiting,
		CreatedAt: s.now().UTC(),
	}
	if err := s.Matches.CreateMatch(ctx, m); err != nil {
		return domain.Match{}, err
	}

	if s.Notifier != nil {
		s.Notifier.NotifyChallenge(ctx, ChallengeNotification{
			RecipientEmail: m.SlotB.Email,
			MatchID:        m.ID,
			ChallengerName: m.SlotA.Username,
		})
	}
	return m, nil
}

// revengeRole pins the opposite of the role the player committed in the
// original match, or leaves the role open when the player never moved.
func revengeRole(orig domain.Match, email string) domain.Role {
	for _, slot := range []domain.Slot{orig.SlotA, orig.SlotB} {
		if strings.EqualFold(slot.Email, strings.TrimSpace(email)) && slot.HasMoves() {
			return slot.Moves.Role.Opposite()
		}
	}
	return ""
}

type SubmitMovesParams struct {
	MatchID  string
	PlayerID string
	Moves    domain.PlayerMoves
}

// SubmitMoves commits a player's five moves through the conditional
// write guard. It is the only action that can resolve a match: after a
// successful commit the match is re-read, and if the other slot has
// also moved, this call resolves, finishes and scores it. The finish
// write is itself conditional on status, so of two racing submitters
// only one applies stats.
func (s *MatchService) SubmitMoves(ctx context.Context, p SubmitMovesParams) (domain.Match, *game.Result, error) {
	if strings.TrimSpace(p.PlayerID) == "" {
		return domain.Match{}, nil, domain.NewValidationError(map[string]string{"playerId": "required"})
	}
	if p.Moves.Version == 0 {
		p.Moves.Version = domain.MovesVersion
	}
	if err := p.Moves.Validate(); err != nil {
		return domain.Match{}, nil, err
	}

	m, err := s.Matches.GetMatch(ctx, p.MatchID)
	if err != nil {
		return domain.Match{}, nil, err
	}

	var slotID domain.SlotID
	switch p.PlayerID {
	case m.SlotA.PlayerID:
		slotID = domain.SlotA
	case m.SlotB.PlayerID:
		slotID = domain.SlotB
	default:
		return domain.Match{}, nil, domain.ErrForbidden
	}

	slot := m.Slot(slotID)
	if slot.HasMoves() {
		return domain.Match{}, nil, domain.ErrAlreadySubmitted
	}
	if slot.AssignedRole != "" && slot.AssignedRole != p.Moves.Role {
		return domain.Match{}, nil, domain.NewValidationError(map[string]string{
			"role": "must play " + string(slot.AssignedRole) + " in this match",
		})
	}
	if other := m.Slot(slotID.Other()); other.HasMoves() && other.Moves.Role == p.Moves.Role {
		return domain.Match{}, nil, domain.ErrRoleConflict
	}

	ok, err := s.Matches.CommitMoves(ctx, p.MatchID, slotID, p.Moves)
	if err != nil {
		return domain.Match{}, nil, err
	}
	if !ok {
		return domain.Match{}, nil, domain.ErrAlreadySubmitted
	}

	m, err = s.Matches.GetMatch(ctx, p.MatchID)
	if err != nil {
		return domain.Match{}, nil, err
	}
	if !m.BothMoved() {
		return m, nil, nil
	}

	res, err := game.ResolveMatch(m)
	if err != nil {
		return domain.Match{}, nil, err
	}

	if !m.Finished() {
		finished, err := s.Matches.FinishMatch(ctx, m.ID, res.Winner)
		if err != nil {
			return domain.Match{}, nil, err
		}
		if finished {
			m.Status = domain.MatchStatusFinished
			m.Winner = res.Winner
			s.applyStats(ctx, m, res)
		} else {
			// Lost the finish race; the other submitter scored it.
			m, err = s.Matches.GetMatch(ctx, p.MatchID)
			if err != nil {
				return domain.Match{}, nil, err
			}
		}
	}
	return m, &res, nil
}

// applyStats credits both participants exactly once per finished match.
// Failures are logged, not returned: the finished match row is the
// authoritative outcome and the finish guard prevents any retry.
func (s *MatchService) applyStats(ctx context.Context, m domain.Match, res game.Result) {
	if s.Stats == nil || s.Users == nil {
		return
	}
	for _, slotID := range []domain.SlotID{domain.SlotA, domain.SlotB} {
		slot := m.Slot(slotID)
		if slot.Email == "" {
			s.logger().Info("stats skipped, slot has no email", "match_id", m.ID, "slot", slotID)
			continue
		}
		user, err := s.Users.FindUserByEmail(ctx, slot.Email)
		if errors.Is(err, domain.ErrNotFound) {
			user, err = s.Users.CreateUser(ctx, slot.Email, slot.Username)
		}
		if err != nil {
			s.logger().Error("stats user lookup failed", "err", err, "match_id", m.ID, "slot", slotID)
			continue
		}
		if err := s.Stats.Record(ctx, user, game.ScoreSlot(res, slotID)); err != nil {
			s.logger().Error("stats update failed", "err", err, "match_id", m.ID, "user_id", user.ID)
		}
	}
}

func requireIdentity(email, username string) error {
	fields := map[string]string{}
	if strings.TrimSpace(email) == "" {
		fields["email"] = "required"
	}
	if strings.TrimSpace(username) == "" {
		fields["username"] = "required"
	}
	if len(fields) > 0 {
		return domain.NewValidationError(fields)
	}
	return nil
}
