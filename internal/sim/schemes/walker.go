package schemes

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"zonesim.ai/internal/sim/logic"
)

// WalkerState is the walker scheme's runtime slot: progress along a
// named patrol path. It survives snapshots.
type WalkerState struct {
	Path     string
	Waypoint int
	Team     string
}

type walker struct{}

func (walker) Scheme() logic.SchemeID { return "walker" }

func (walker) Activate(ctx *logic.Context, a *logic.Actor, section logic.SectionID, restoring bool) error {
	path := fieldStr(a, section, "path", "")
	if path == "" {
		return fmt.Errorf("walker %s[%s]: missing path", a.ID, section)
	}
	st := &WalkerState{Path: path, Team: fieldStr(a, section, "team", "")}
	if restoring {
		// A load replay keeps patrol progress as long as the path is
		// unchanged.
		if prev, ok := a.State.Slot("walker"); ok {
			if ws, ok := prev.(*WalkerState); ok && ws.Path == path {
				st.Waypoint = ws.Waypoint
			}
		}
	}
	a.State.SetSlot("walker", st)
	return nil
}

func (walker) Reset(ctx *logic.Context, a *logic.Actor, section logic.SectionID) {}

func (walker) Tick(ctx *logic.Context, a *logic.Actor, section logic.SectionID) {
	if st, ok := a.State.Slot("walker"); ok {
		if ws, ok := st.(*WalkerState); ok {
			ws.Waypoint++
		}
	}
}

func (walker) SaveSlot(st logic.SchemeState) ([]byte, error) {
	ws, ok := st.(*WalkerState)
	if !ok {
		return nil, fmt.Errorf("walker slot has type %T", st)
	}
	return gobEncode(ws)
}

func (walker) LoadSlot(data []byte) (logic.SchemeState, error) {
	var ws WalkerState
	if err := gobDecode(data, &ws); err != nil {
		return nil, err
	}
	return &ws, nil
}

func gobEncode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gobDecode(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
