package schemes

import (
	"zonesim.ai/internal/sim/logic"
)

// RemarkState holds a scripted stand-and-emote behavior. The give_info
// side effect fires only on a genuine switch: a load replay must not
// hand the same flag out twice.
type RemarkState struct {
	Anim   string
	Target string
}

type remark struct{}

func (remark) Scheme() logic.SchemeID { return "remark" }

func (remark) Activate(ctx *logic.Context, a *logic.Actor, section logic.SectionID, restoring bool) error {
	a.State.SetSlot("remark", &RemarkState{
		Anim:   fieldStr(a, section, "anim", "wait"),
		Target: fieldStr(a, section, "target", ""),
	})
	if !restoring {
		if info := fieldStr(a, section, "give_info", ""); info != "" {
			a.GiveInfo(info)
		}
	}
	return nil
}

func (remark) Reset(ctx *logic.Context, a *logic.Actor, section logic.SectionID) {}
