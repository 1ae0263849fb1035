package world

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"zonesim.ai/internal/persistence/snapshot"
	"zonesim.ai/internal/sim/logic"
	"zonesim.ai/internal/sim/profile"
)

// Restore builds a scene from a snapshot instead of fresh spawns. The
// actors that were bound at save time are exactly the actors that
// re-activate here, each seeing restoring=true exactly once.
func Restore(cfg Config, snap snapshot.SnapshotV1) (*World, error) {
	cfg.Tuning.ApplyDefaults()
	w := newWorld(cfg)
	if err := w.importSnapshot(snap); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *World) exportSnapshot() snapshot.SnapshotV1 {
	snap := snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version: 1,
			SceneID: w.cfg.SceneID,
			Tick:    w.tick.Load(),
		},
		TickRateHz:     w.cfg.Tuning.TickRateHz,
		SimRadius:      w.cfg.Tuning.SimRadius,
		GameTimeUnix:   w.gameTime().UnixNano(),
		ProfilesDigest: w.cfg.Profiles.Digest,
	}

	for _, id := range w.order {
		a := w.actors[id]
		av := snapshot.ActorV1{
			ID:        a.ID,
			Name:      a.Name,
			Species:   a.Species,
			Archetype: a.Archetype.String(),
			Profile:   a.Profile.Name,
			Pos:       [3]float64{a.Pos.X, a.Pos.Y, a.Pos.Z},
			Health:    a.Health,
			Infos:     a.Infos(),
			Online:    w.online[id],

			ActivationTick:     a.State.ActivationTick,
			ActivationGameTime: a.State.ActivationGameTime.UnixNano(),
		}
		if sec, ok := a.State.Active(); ok {
			av.ActiveSection = string(sec)
		}
		av.Slots = w.exportSlots(a)
		snap.Actors = append(snap.Actors, av)
	}

	for actorID, sec := range w.offl.Records() {
		snap.Offline = append(snap.Offline, snapshot.OfflineV1{
			ActorID:     actorID,
			LastSection: string(sec),
		})
	}
	for actorID, siteID := range w.jobs.Assignments() {
		snap.Jobs = append(snap.Jobs, snapshot.JobV1{ActorID: actorID, SiteID: siteID})
	}
	return snap
}

// exportSlots encodes the runtime slots of schemes that opted into
// persistence. Slots of non-persisting schemes rebuild on restore.
func (w *World) exportSlots(a *logic.Actor) map[string][]byte {
	var out map[string][]byte
	for schemeID, st := range a.State.Slots() {
		d, ok := w.ctx.Registry.Lookup(schemeID)
		if !ok {
			continue
		}
		p, ok := d.(logic.SchemePersister)
		if !ok {
			continue
		}
		b, err := p.SaveSlot(st)
		if err != nil {
			if w.logger != nil {
				w.logger.Printf("save slot %s/%s: %v", a.ID, schemeID, err)
			}
			continue
		}
		if out == nil {
			out = map[string][]byte{}
		}
		out[string(schemeID)] = b
	}
	return out
}

func (w *World) writeSnapshot() (string, error) {
	snap := w.exportSnapshot()
	path := filepath.Join(w.cfg.SnapshotDir, fmt.Sprintf("snap-%010d.zst", snap.Header.Tick))
	if err := snapshot.WriteSnapshot(path, snap); err != nil {
		return "", err
	}
	if w.cfg.OnSnapshotWritten != nil {
		w.cfg.OnSnapshotWritten(path, snap)
	}
	return path, nil
}

func (w *World) importSnapshot(snap snapshot.SnapshotV1) error {
	w.tick.Store(snap.Header.Tick)
	if snap.GameTimeUnix != 0 {
		w.gameStart = time.Unix(0, snap.GameTimeUnix).UTC()
		w.started = time.Now()
	}

	for _, j := range snap.Jobs {
		if err := w.jobs.AssignTo(j.ActorID, j.SiteID); err != nil {
			return fmt.Errorf("restore job %s: %w", j.ActorID, err)
		}
	}
	for _, rec := range snap.Offline {
		w.offl.Suspend(rec.ActorID, logic.SectionID(rec.LastSection), rec.LastSection != "")
	}

	for _, av := range snap.Actors {
		a, err := w.buildActor(Spawn{
			ID:      av.ID,
			Name:    av.Name,
			Profile: av.Profile,
			Species: av.Species,
			Pos:     av.Pos,
			Health:  av.Health,
		})
		if err != nil {
			return err
		}
		for _, info := range av.Infos {
			a.GiveInfo(info)
		}
		a.State.ActivationTick = av.ActivationTick
		if av.ActivationGameTime != 0 {
			a.State.ActivationGameTime = time.Unix(0, av.ActivationGameTime).UTC()
		}
		w.restoreSlots(a, av.Slots)

		w.actors[a.ID] = a
		w.order = append(w.order, a.ID)
		w.online[a.ID] = av.Online

		if err := logic.EnableBaseSchemes(w.ctx, a, profile.EntrySection); err != nil {
			return err
		}
		if av.Online && av.ActiveSection != "" {
			if err := logic.Activate(w.ctx, a, logic.NamedTarget(logic.SectionID(av.ActiveSection)), "load", true); err != nil {
				return err
			}
		}
	}
	sort.Strings(w.order)
	w.audit("restore", "", fmt.Sprintf("tick=%d actors=%d", snap.Header.Tick, len(snap.Actors)))
	return nil
}

func (w *World) restoreSlots(a *logic.Actor, slots map[string][]byte) {
	for name, data := range slots {
		schemeID := logic.SchemeID(name)
		d, ok := w.ctx.Registry.Lookup(schemeID)
		if !ok {
			continue
		}
		p, ok := d.(logic.SchemePersister)
		if !ok {
			continue
		}
		st, err := p.LoadSlot(data)
		if err != nil {
			if w.logger != nil {
				w.logger.Printf("load slot %s/%s: %v", a.ID, schemeID, err)
			}
			continue
		}
		a.State.SetSlot(schemeID, st)
	}
}
