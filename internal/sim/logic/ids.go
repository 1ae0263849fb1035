package logic

import "strings"

// SectionID names one configuration block in an actor's profile.
// SchemeID names the behavior implementation a section maps to.
//
// Absence is never carried as a magic string: the zero value is used only
// inside ActorState, and every boundary exposes (value, ok) accessors.
type SectionID string

type SchemeID string

// SchemeFromSection derives the scheme identifier from a section name:
// everything up to the first '@' ("walker@rounds" -> "walker", "guard"
// -> "guard"). A section from which no scheme can be derived is
// malformed content.
func SchemeFromSection(section SectionID) (SchemeID, error) {
	s := string(section)
	if i := strings.Index(s, "@"); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return "", configErr(ErrUnresolvedScheme, "?", section, "cannot derive scheme name")
	}
	return SchemeID(s), nil
}
