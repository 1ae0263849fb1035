package schemes

import (
	"fmt"

	"zonesim.ai/internal/sim/logic"
)

// phIdle is the prop resting scheme. A section may declare an on_use
// condlist; interacting with the prop then evaluates it and activates
// the picked section, which is how doors and switches script their
// transitions.
type phIdle struct{}

func (phIdle) Scheme() logic.SchemeID { return "ph_idle" }

func (phIdle) Activate(ctx *logic.Context, a *logic.Actor, section logic.SectionID, restoring bool) error {
	a.Usable = fieldBool(a, section, "usable", true)
	expr, ok := a.Profile.Field(string(section), "on_use")
	if !ok {
		return nil
	}
	cl, err := ctx.ParseCond(expr)
	if err != nil {
		return fmt.Errorf("ph_idle %s[%s]: on_use: %w", a.ID, section, err)
	}
	a.UseCallback = func(userID string) {
		next, picked := ctx.Eval.Evaluate(a, nil, cl)
		if !picked || next == "" {
			return
		}
		if err := logic.Activate(ctx, a, logic.NamedTarget(logic.SectionID(next)), "use:"+userID, false); err != nil && ctx.Log != nil {
			ctx.Log.Printf("ph_idle %s: on_use activation: %v", a.ID, err)
		}
	}
	return nil
}

func (phIdle) Reset(ctx *logic.Context, a *logic.Actor, section logic.SectionID) {}
