package logic

import (
	"errors"
	"fmt"

	"zonesim.ai/internal/protocol"
)

// Fatal configuration errors. A mis-activated actor corrupts later state
// silently, so these must halt scene setup rather than skip the actor.
var (
	ErrUnresolvedScheme     = errors.New(protocol.ErrUnresolvedScheme)
	ErrNoElseClause         = errors.New(protocol.ErrNoElseClause)
	ErrNotAssignedToTerrain = errors.New(protocol.ErrNotAssignedToTerrain)
	ErrBadProfile           = errors.New(protocol.ErrBadProfile)
)

func configErr(sentinel error, actorID string, section SectionID, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("%w: actor %s section %q: %s", sentinel, actorID, string(section), msg)
}

// CodeOf maps an error chain to the protocol code it carries. Errors
// outside the configuration family report E_INTERNAL.
func CodeOf(err error) string {
	for _, m := range []struct {
		sentinel error
		code     string
	}{
		{ErrUnresolvedScheme, protocol.ErrUnresolvedScheme},
		{ErrNoElseClause, protocol.ErrNoElseClause},
		{ErrNotAssignedToTerrain, protocol.ErrNotAssignedToTerrain},
		{ErrBadProfile, protocol.ErrBadProfile},
	} {
		if errors.Is(err, m.sentinel) {
			return m.code
		}
	}
	return protocol.ErrInternal
}
