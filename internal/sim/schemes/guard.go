package schemes

import (
	"fmt"

	"zonesim.ai/internal/sim/logic"
)

// GuardState is the guard scheme's runtime slot. Alerted is raised by
// combat handlers and survives snapshots so a reloaded guard does not
// forget an ongoing alert.
type GuardState struct {
	Point   string
	Alerted bool
}

type guard struct{}

func (guard) Scheme() logic.SchemeID { return "guard" }

func (guard) Activate(ctx *logic.Context, a *logic.Actor, section logic.SectionID, restoring bool) error {
	point := fieldStr(a, section, "point", "")
	if point == "" {
		return fmt.Errorf("guard %s[%s]: missing point", a.ID, section)
	}
	st := &GuardState{Point: point}
	if restoring {
		if prev, ok := a.State.Slot("guard"); ok {
			if gs, ok := prev.(*GuardState); ok && gs.Point == point {
				st.Alerted = gs.Alerted
			}
		}
	}
	a.State.SetSlot("guard", st)
	return nil
}

func (guard) Reset(ctx *logic.Context, a *logic.Actor, section logic.SectionID) {}

func (guard) SaveSlot(st logic.SchemeState) ([]byte, error) {
	gs, ok := st.(*GuardState)
	if !ok {
		return nil, fmt.Errorf("guard slot has type %T", st)
	}
	return gobEncode(gs)
}

func (guard) LoadSlot(data []byte) (logic.SchemeState, error) {
	var gs GuardState
	if err := gobDecode(data, &gs); err != nil {
		return nil, err
	}
	return &gs, nil
}
