package logic

import (
	"errors"
	"fmt"
)

// ProfileNotFoundError means the (player, season) pair does not exist in the
// feature corpus. Fatal for the request; no partial result is produced.
type ProfileNotFoundError struct {
	PlayerID string
	Season   string
}

func (e *ProfileNotFoundError) Error() string {
	return fmt.Sprintf("profile not found: player %s season %s", e.PlayerID, e.Season)
}

// InsufficientDataError means the profile exists but lacks mandatory
// identifying fields (player, season, observed usage). Fatal for the request.
type InsufficientDataError struct {
	PlayerID string
	Season   string
	Missing  string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for player %s season %s: missing %s", e.PlayerID, e.Season, e.Missing)
}

// ErrStatsStale signals that the cached population snapshot predates the
// current corpus version. Recoverable: callers recompute and retry.
var ErrStatsStale = errors.New("population statistics stale")

// IsNotFound reports whether err is a profile-not-found failure.
func IsNotFound(err error) bool {
	var nf *ProfileNotFoundError
	return errors.As(err, &nf)
}

// IsInsufficientData reports whether err is a mandatory-field failure.
func IsInsufficientData(err error) bool {
	var id *InsufficientDataError
	return errors.As(err, &id)
}
