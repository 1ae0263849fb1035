package schemes

import (
	"fmt"

	"zonesim.ai/internal/sim/logic"
)

// CamperState holds the ambush position the camper scheme watches from.
type CamperState struct {
	Point  string
	Radius float64
}

type camper struct{}

func (camper) Scheme() logic.SchemeID { return "camper" }

func (camper) Activate(ctx *logic.Context, a *logic.Actor, section logic.SectionID, restoring bool) error {
	point := fieldStr(a, section, "point", "")
	if point == "" {
		return fmt.Errorf("camper %s[%s]: missing point", a.ID, section)
	}
	a.State.SetSlot("camper", &CamperState{
		Point:  point,
		Radius: fieldFloat(a, section, "radius", 10),
	})
	return nil
}

func (camper) Reset(ctx *logic.Context, a *logic.Actor, section logic.SectionID) {}
