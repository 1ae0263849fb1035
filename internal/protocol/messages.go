package protocol

// HELLO (observer -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ObserverName    string `json:"observer_name"`
	// SinceTick asks the server to include activations recorded at or
	// after this tick in the initial backlog (best effort).
	SinceTick uint64 `json:"since_tick,omitempty"`
}

// WELCOME (server -> observer)
type WelcomeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ObserverID      string `json:"observer_id"`
	WorldID         string `json:"world_id"`
	TickRateHz      int    `json:"tick_rate_hz"`
	ServerTick      uint64 `json:"server_tick"`
}

// SCHEME_ACTIVATED (server -> observer). One per main-section switch;
// never emitted for a transition to the null section.
type ActivatedMsg struct {
	Type      string `json:"type"`
	Tick      uint64 `json:"tick"`
	ActorID   string `json:"actor_id"`
	Scheme    string `json:"scheme"`
	Section   string `json:"section"`
	Restoring bool   `json:"restoring"`
	Label     string `json:"label,omitempty"`
}

// ACTOR_SUSPENDED / ACTOR_RESUMED (server -> observer)
type SuspendMsg struct {
	Type        string `json:"type"`
	Tick        uint64 `json:"tick"`
	ActorID     string `json:"actor_id"`
	LastSection string `json:"last_section,omitempty"`
}

// TICK (server -> observer), periodic summary.
type TickMsg struct {
	Type    string `json:"type"`
	Tick    uint64 `json:"tick"`
	Online  int    `json:"online"`
	Offline int    `json:"offline"`
}
