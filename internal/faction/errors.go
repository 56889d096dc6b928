package faction

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyExists         = errors.New("faction already exists")
	ErrNotFound              = errors.New("not found")
	ErrAlreadyMember         = errors.New("already a member of this faction")
	ErrAlreadyInOtherFaction = errors.New("already a member of another faction")
	ErrAlreadyInFaction      = errors.New("already in a faction")
	ErrNotInFaction          = errors.New("not in a faction")
	ErrNotInThatFaction      = errors.New("not a member of that faction")
	ErrAlreadyCheckedInToday = errors.New("already checked in today")
	ErrUnauthorized          = errors.New("not permitted")
)

// AffiliationError reports the faction a user already belongs to
type AffiliationError struct {
	Err     error
	Faction string
}

func (e *AffiliationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err, e.Faction)
}

func (e *AffiliationError) Unwrap() error {
	return e.Err
}

// Kind groups the errors of the registry by how they are reported
type Kind int

const (
	KindUnexpected Kind = iota
	KindConflict
	KindNotFound
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "unexpected"
	}
}

func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrAlreadyExists),
		errors.Is(err, ErrAlreadyMember),
		errors.Is(err, ErrAlreadyInOtherFaction),
		errors.Is(err, ErrAlreadyInFaction),
		errors.Is(err, ErrAlreadyCheckedInToday):
		return KindConflict
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrNotInFaction),
		errors.Is(err, ErrNotInThatFaction):
		return KindNotFound
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	default:
		return KindUnexpected
	}
}
