package world

import (
	"encoding/json"
	"time"

	plog "zonesim.ai/internal/persistence/log"
	"zonesim.ai/internal/protocol"
	"zonesim.ai/internal/sim/logic"
)

// SchemeActivated implements logic.EventSink: every main-section switch
// is journaled and streamed to observers.
func (w *World) SchemeActivated(ev logic.ActivationEvent) {
	entry := plog.ActivationEntry{
		TS:        time.Now().UTC().Format(time.RFC3339Nano),
		Tick:      ev.Tick,
		ActorID:   ev.ActorID,
		Scheme:    string(ev.Scheme),
		Section:   string(ev.Section),
		Restoring: ev.Restoring,
		Label:     ev.Label,
	}
	for _, sink := range w.cfg.ActSinks {
		if sink == nil {
			continue
		}
		if err := sink.WriteActivation(entry); err != nil && w.logger != nil {
			w.logger.Printf("activation sink: %v", err)
		}
	}
	w.broadcast(protocol.ActivatedMsg{
		Type:      protocol.TypeActivated,
		Tick:      ev.Tick,
		ActorID:   ev.ActorID,
		Scheme:    string(ev.Scheme),
		Section:   string(ev.Section),
		Restoring: ev.Restoring,
		Label:     ev.Label,
	})
}

func (w *World) audit(kind, actorID, detail string) {
	entry := plog.AuditEntry{
		TS:      time.Now().UTC().Format(time.RFC3339Nano),
		Tick:    w.tick.Load(),
		Kind:    kind,
		ActorID: actorID,
		Detail:  detail,
	}
	for _, sink := range w.cfg.AuditSinks {
		if sink == nil {
			continue
		}
		if err := sink.WriteAudit(entry); err != nil && w.logger != nil {
			w.logger.Printf("audit sink: %v", err)
		}
	}
}

func (w *World) broadcast(v any) {
	if len(w.observers) == 0 {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	for _, ch := range w.observers {
		sendLatest(ch, b)
	}
}

// sendLatest delivers without blocking, dropping the oldest queued
// message when the observer falls behind.
func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
