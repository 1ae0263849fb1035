package logic

// ActivationEvent is emitted once per main-section switch, scoped to
// the new scheme's runtime slot (the slot exists by the time observers
// see the event). Restoring distinguishes a load-time replay from a
// genuine switch so schemes can suppress one-shot effects.
type ActivationEvent struct {
	Tick      uint64
	ActorID   string
	Scheme    SchemeID
	Section   SectionID
	Restoring bool
	Label     string
}

// MultiSink fans one event out to several sinks.
type MultiSink []EventSink

func (m MultiSink) SchemeActivated(ev ActivationEvent) {
	for _, s := range m {
		if s != nil {
			s.SchemeActivated(ev)
		}
	}
}
