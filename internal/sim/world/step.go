package world

import (
	"fmt"

	"zonesim.ai/internal/protocol"
	"zonesim.ai/internal/sim/logic"
)

// step advances one tick. Everything here runs on the loop goroutine;
// an activation completes before anything else observes actor state.
// An activation error is a content defect and stops the scene: a
// mis-activated actor corrupts later state silently.
func (w *World) step() error {
	tick := w.tick.Add(1)
	t := w.cfg.Tuning

	if tick%uint64(t.SuspendEveryTicks) == 0 {
		if err := w.refreshOnline(); err != nil {
			return err
		}
	}
	if tick%uint64(t.LogicEveryTicks) == 0 {
		if err := w.logicStep(); err != nil {
			return err
		}
		w.broadcast(protocol.TickMsg{
			Type:    protocol.TypeTick,
			Tick:    tick,
			Online:  w.onlineCount(),
			Offline: len(w.order) - w.onlineCount(),
		})
	}
	if w.cfg.SnapshotDir != "" && tick%uint64(t.SnapshotEveryTicks) == 0 {
		if path, err := w.writeSnapshot(); err != nil {
			if w.logger != nil {
				w.logger.Printf("snapshot: %v", err)
			}
		} else {
			w.audit("snapshot", "", path)
		}
	}
	return nil
}

// refreshOnline re-checks online membership against the focus radius.
// Leaving the radius suspends the actor: its current section is
// recorded for resume and its logic is torn down through a null
// transition. Entering the radius resumes it through normal resolution,
// which prefers the recorded section.
func (w *World) refreshOnline() error {
	for _, id := range w.order {
		a := w.actors[id]
		inRange := dist(a.Pos, w.focus) <= w.cfg.Tuning.SimRadius
		switch {
		case w.online[id] && !inRange:
			if err := w.suspend(a); err != nil {
				return err
			}
		case !w.online[id] && inRange:
			if err := w.resume(a); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *World) suspend(a *logic.Actor) error {
	last, bound := a.State.Active()
	w.offl.Suspend(a.ID, last, bound)
	if err := logic.Activate(w.ctx, a, logic.NullTarget(), "suspend", false); err != nil {
		return fmt.Errorf("suspend %s: %w", a.ID, err)
	}
	w.online[a.ID] = false
	w.audit("suspend", a.ID, string(last))
	w.broadcast(protocol.SuspendMsg{
		Type:        protocol.TypeSuspended,
		Tick:        w.tick.Load(),
		ActorID:     a.ID,
		LastSection: string(last),
	})
	return nil
}

func (w *World) resume(a *logic.Actor) error {
	if err := logic.Activate(w.ctx, a, logic.AutoTarget(), "resume", false); err != nil {
		return fmt.Errorf("resume %s: %w", a.ID, err)
	}
	w.offl.Resume(a.ID)
	w.online[a.ID] = true
	section, _ := a.State.Active()
	w.audit("resume", a.ID, string(section))
	w.broadcast(protocol.SuspendMsg{
		Type:        protocol.TypeResumed,
		Tick:        w.tick.Load(),
		ActorID:     a.ID,
		LastSection: string(section),
	})
	return nil
}

// logicStep re-evaluates config-declared transitions for every online
// actor and advances the active scheme's runtime.
func (w *World) logicStep() error {
	for _, id := range w.order {
		if !w.online[id] {
			continue
		}
		a := w.actors[id]
		if _, err := logic.MaybeSwitch(w.ctx, a, "tick"); err != nil {
			return fmt.Errorf("logic %s: %w", a.ID, err)
		}
		scheme, ok := a.State.ActiveScheme()
		if !ok {
			continue
		}
		section, _ := a.State.Active()
		if d, found := w.ctx.Registry.Lookup(scheme); found {
			if ticker, can := d.(logic.SchemeTicker); can {
				ticker.Tick(w.ctx, a, section)
			}
		}
	}
	return nil
}

func (w *World) handleUse(req useReq) {
	a, ok := w.actors[req.ActorID]
	if !ok || !w.online[req.ActorID] {
		return
	}
	if !a.Usable || a.UseCallback == nil {
		return
	}
	a.UseCallback(req.UserID)
	w.audit("use", a.ID, req.UserID)
}

func (w *World) onlineCount() int {
	n := 0
	for _, on := range w.online {
		if on {
			n++
		}
	}
	return n
}
