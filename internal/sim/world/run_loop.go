package world

import (
	"context"
	"time"

	"zonesim.ai/internal/protocol"
	"zonesim.ai/internal/sim/logic"
)

func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.Tuning.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingUses []useReq
	var pendingSnaps []chan snapResp

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.observerJoin:
			w.handleObserverJoin(req)
		case id := <-w.observerLeave:
			w.handleObserverLeave(id)
		case p := <-w.focusCh:
			w.focus = p
		case req := <-w.useCh:
			pendingUses = append(pendingUses, req)
		case resp := <-w.snapReq:
			pendingSnaps = append(pendingSnaps, resp)
		case <-ticker.C:
			if err := w.step(); err != nil {
				return w.fatal(err)
			}
			for _, req := range pendingUses {
				w.handleUse(req)
			}
			for _, resp := range pendingSnaps {
				w.handleSnapshotRequest(resp)
			}
			pendingUses = pendingUses[:0]
			pendingSnaps = pendingSnaps[:0]
		}
	}
}

func (w *World) Stop() { close(w.stop) }

// Snapshot asks the loop for an out-of-schedule snapshot and waits for
// the result.
func (w *World) Snapshot() (path string, tick uint64, err error) {
	ch := make(chan snapResp, 1)
	w.snapReq <- ch
	r := <-ch
	return r.Path, r.Tick, r.Err
}

func (w *World) handleSnapshotRequest(resp chan snapResp) {
	path, err := w.writeSnapshot()
	resp <- snapResp{Path: path, Tick: w.tick.Load(), Err: err}
}

// StepOnce advances the scene a single tick with the same ordering and
// failure handling as the server loop. For deterministic tests.
func (w *World) StepOnce() (uint64, error) {
	err := w.step()
	if err != nil {
		err = w.fatal(err)
	}
	return w.tick.Load(), err
}

// fatal journals a loop-stopping error with its protocol code before
// the error is handed back to the caller. A code that is not in the
// registered set is journaled as E_INTERNAL so downstream tooling never
// sees one it cannot classify.
func (w *World) fatal(err error) error {
	code := logic.CodeOf(err)
	if !protocol.IsKnownCode(code) {
		code = protocol.ErrInternal
	}
	w.audit("fatal", "", code+": "+err.Error())
	if w.logger != nil {
		w.logger.Printf("fatal: %v", err)
	}
	return err
}
