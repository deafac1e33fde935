package postgres

import (
	"encoding/hex"
	"fmt"

	"shootoutserver/internal/domain"

	"github.com/jackc/pgx/v5/pgtype"
)

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func textOrEmpty(t pgtype.Text) string {
	if t.Valid {
		return t.String
	}
	return ""
}

func uuidOrEmpty(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	return uuidBytesToString(u.Bytes)
}

func uuidBytesToString(b [16]byte) string {
	var buf [36]byte
	hex.Encode(buf[0:8], b[0:4])
	buf[8] = '-'
	hex.Encode(buf[9:13], b[4:6])
	buf[13] = '-'
	hex.Encode(buf[14:18], b[6:8])
	buf[18] = '-'
	hex.Encode(buf[19:23], b[8:10])
	buf[23] = '-'
	hex.Encode(buf[24:36], b[10:16])
	return string(buf[:])
}

func movesOrNil(raw []byte) (*domain.PlayerMoves, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	pm, err := domain.DecodeMoves(raw)
	if err != nil {
		return nil, fmt.Errorf("stored moves: %w", err)
	}
	return pm, nil
}

func encodeMovesOrNil(pm *domain.PlayerMoves) (any, error) {
	if pm == nil {
		return nil, nil
	}
	raw, err := pm.Encode()
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func roleOrNil(r domain.Role) any {
	if r == "" {
		return nil
	}
	return string(r)
}

func winnerOrNil(w *domain.SlotID) any {
	if w == nil {
		return nil
	}
	return string(*w)
}

func winnerPtr(t pgtype.Text) *domain.SlotID {
	if !t.Valid || t.String == "" {
		return nil
	}
	w := domain.SlotID(t.String)
	return &w
}
