package notifications

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/gloriosas/wellness/internal/team"
)

// Submissions is who has logged a given kind today. Records carry the
// athlete's display name and, when it resolved, the stable user ID.
type Submissions struct {
	names map[string]struct{}
	ids   map[uuid.UUID]struct{}
}

// NewSubmissions returns an empty set.
func NewSubmissions() *Submissions {
	return &Submissions{
		names: make(map[string]struct{}),
		ids:   make(map[uuid.UUID]struct{}),
	}
}

// Add records one submission.
func (s *Submissions) Add(athleteID *uuid.UUID, name string) {
	if name != "" {
		s.names[name] = struct{}{}
	}
	if athleteID != nil && *athleteID != uuid.Nil {
		s.ids[*athleteID] = struct{}{}
	}
}

// HasName is the exact-match name test, used against the roster and for an
// athlete's own "already submitted" check.
func (s *Submissions) HasName(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.names[name]
	return ok
}

// HasUser matches by stable ID first, falling back to the display name for
// records written before the ID was known.
func (s *Submissions) HasUser(u team.User) bool {
	if s == nil {
		return false
	}
	if _, ok := s.ids[u.ID]; ok {
		return true
	}
	return s.HasName(u.Name)
}

// Len returns the number of distinct submitting names.
func (s *Submissions) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// Missing returns roster names with no submission, in roster order.
// Names match exactly; a typo between roster and record reads as missing.
func Missing(roster []string, s *Submissions) []string {
	seen := make(map[string]struct{}, len(roster))
	var missing []string
	for _, name := range roster {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		if !s.HasName(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

const missingListLimit = 3

// MissingMessage summarizes missing athletes: up to three are listed in full,
// beyond that the count and the first two names.
func MissingMessage(missing []string) string {
	switch {
	case len(missing) == 0:
		return "Todas han completado el Wellness de hoy ✅"
	case len(missing) <= missingListLimit:
		return "Faltan: " + strings.Join(missing, ", ")
	default:
		return fmt.Sprintf("Faltan %d: %s...", len(missing), strings.Join(missing[:2], ", "))
	}
}
