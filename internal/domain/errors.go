package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not_found")
	ErrAlreadySubmitted = errors.New("already_submitted")
	ErrMatchFull        = errors.New("match_full")
	ErrMatchInProgress  = errors.New("match_in_progress")
	ErrChallengeExists  = errors.New("challenge_exists")
	ErrRoleConflict     = errors.New("role_conflict")
	ErrValidation       = errors.New("validation")
	ErrUnavailable      = errors.New("unavailable")
)

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func NewValidationError(fields map[string]string) error {
	return &ValidationError{Fields: fields}
}
