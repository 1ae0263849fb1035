package world

import (
	"fmt"

	"zonesim.ai/internal/protocol"
)

type observerJoinReq struct {
	Name string
	Out  chan []byte
	Resp chan protocol.WelcomeMsg
}

// ObserverJoin registers a read-only observer and returns its id and
// welcome message. The returned channel carries the event stream.
func (w *World) ObserverJoin(name string, out chan []byte) protocol.WelcomeMsg {
	resp := make(chan protocol.WelcomeMsg, 1)
	w.observerJoin <- observerJoinReq{Name: name, Out: out, Resp: resp}
	return <-resp
}

func (w *World) ObserverLeave(id string) {
	w.observerLeave <- id
}

func (w *World) handleObserverJoin(req observerJoinReq) {
	w.nextObs++
	id := fmt.Sprintf("obs-%04d", w.nextObs)
	w.observers[id] = req.Out
	req.Resp <- protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		ObserverID:      id,
		WorldID:         w.cfg.SceneID,
		TickRateHz:      w.cfg.Tuning.TickRateHz,
		ServerTick:      w.tick.Load(),
	}
}

func (w *World) handleObserverLeave(id string) {
	if ch, ok := w.observers[id]; ok {
		delete(w.observers, id)
		close(ch)
	}
}
