package protocol

const (
	// Fatal configuration errors: malformed content must stop scene setup.
	ErrUnresolvedScheme     = "E_UNRESOLVED_SCHEME"
	ErrNoElseClause         = "E_NO_ELSE_CLAUSE"
	ErrNotAssignedToTerrain = "E_NOT_ASSIGNED_TO_TERRAIN"
	ErrBadProfile           = "E_BAD_PROFILE"

	// Programmer misuse, caught at the call site.
	ErrUnknownScheme       = "E_UNKNOWN_SCHEME"
	ErrReentrantActivation = "E_REENTRANT_ACTIVATION"

	// Transport/observer surface.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"
	ErrInternal        = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrUnresolvedScheme:     {},
	ErrNoElseClause:         {},
	ErrNotAssignedToTerrain: {},
	ErrBadProfile:           {},
	ErrUnknownScheme:        {},
	ErrReentrantActivation:  {},
	ErrProtoBadRequest:      {},
	ErrInternal:             {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
