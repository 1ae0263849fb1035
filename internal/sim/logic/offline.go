package logic

// OfflineRegistry is the offline/online continuity bridge. One record
// exists per suspended actor and never concurrently with active
// participation; the world loop creates it on suspension and removes it
// when the resume completes.
type OfflineRegistry struct {
	byActor map[string]offlineRec
}

type offlineRec struct {
	last SectionID
	has  bool
}

func NewOfflineRegistry() *OfflineRegistry {
	return &OfflineRegistry{byActor: map[string]offlineRec{}}
}

// Suspend records what the actor was doing. ok=false records "nothing"
// (the actor was unbound when it left active simulation).
func (r *OfflineRegistry) Suspend(actorID string, last SectionID, ok bool) {
	if !ok {
		last = ""
	}
	r.byActor[actorID] = offlineRec{last: last, has: ok}
}

// Peek reports the recorded section without consuming it.
func (r *OfflineRegistry) Peek(actorID string) (SectionID, bool) {
	rec, ok := r.byActor[actorID]
	if !ok || !rec.has {
		return "", false
	}
	return rec.last, true
}

// Take consumes the recorded section. Resolution calls it only when the
// section is actually adopted (see DESIGN.md on consume-on-read).
func (r *OfflineRegistry) Take(actorID string) (SectionID, bool) {
	rec, ok := r.byActor[actorID]
	if !ok || !rec.has {
		return "", false
	}
	r.byActor[actorID] = offlineRec{}
	return rec.last, true
}

// Drop discards a stale recorded section that can never be adopted.
func (r *OfflineRegistry) Drop(actorID string) {
	if rec, ok := r.byActor[actorID]; ok {
		rec.has = false
		rec.last = ""
		r.byActor[actorID] = rec
	}
}

// Resume destroys the actor's offline record entirely.
func (r *OfflineRegistry) Resume(actorID string) {
	delete(r.byActor, actorID)
}

// Suspended reports whether the actor currently holds an offline record.
func (r *OfflineRegistry) Suspended(actorID string) bool {
	_, ok := r.byActor[actorID]
	return ok
}

// Records lists all suspended actors and their recorded sections, for
// persistence.
func (r *OfflineRegistry) Records() map[string]SectionID {
	out := make(map[string]SectionID, len(r.byActor))
	for id, rec := range r.byActor {
		if rec.has {
			out[id] = rec.last
		} else {
			out[id] = ""
		}
	}
	return out
}
