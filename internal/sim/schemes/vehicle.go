package schemes

import (
	"fmt"

	"zonesim.ai/internal/sim/logic"
)

// PatrolState is the vehicle patrol slot.
type PatrolState struct {
	Path     string
	Waypoint int
	Speed    float64
}

type vehPatrol struct{}

func (vehPatrol) Scheme() logic.SchemeID { return "veh_patrol" }

func (vehPatrol) Activate(ctx *logic.Context, a *logic.Actor, section logic.SectionID, restoring bool) error {
	path := fieldStr(a, section, "path", "")
	if path == "" {
		return fmt.Errorf("veh_patrol %s[%s]: missing path", a.ID, section)
	}
	a.State.SetSlot("veh_patrol", &PatrolState{
		Path:  path,
		Speed: fieldFloat(a, section, "speed", 5),
	})
	return nil
}

func (vehPatrol) Reset(ctx *logic.Context, a *logic.Actor, section logic.SectionID) {}

func (vehPatrol) Tick(ctx *logic.Context, a *logic.Actor, section logic.SectionID) {
	if st, ok := a.State.Slot("veh_patrol"); ok {
		if ps, ok := st.(*PatrolState); ok {
			ps.Waypoint++
		}
	}
}
