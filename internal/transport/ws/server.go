package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"zonesim.ai/internal/persistence/indexdb"
	"zonesim.ai/internal/protocol"
	"zonesim.ai/internal/sim/world"
)

// backlogLimit caps the frames replayed for one HELLO since_tick.
const backlogLimit = 256

// Backlog supplies the activation history replayed to observers whose
// HELLO asks for frames since an earlier tick.
type Backlog interface {
	ActivationsSince(ctx context.Context, fromTick uint64, limit int) ([]indexdb.ActivationRow, error)
}

// Server exposes the scene's event stream to websocket observers.
// Observers are read-only: after the HELLO/WELCOME handshake the server
// only pushes frames; inbound frames are discarded.
type Server struct {
	world   *world.World
	log     *log.Logger
	backlog Backlog

	upgrader websocket.Upgrader
}

func NewServer(w *world.World, logger *log.Logger) *Server {
	s := &Server{
		world: w,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		observerID, out := s.handshake(conn)
		if observerID == "" {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop. Observers send nothing after HELLO; the reads keep
		// the connection's liveness checks running and detect the close.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				break
			}
		}

		s.world.ObserverLeave(observerID)
	}
}

func (s *Server) handshake(conn *websocket.Conn) (observerID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return "", nil
	}
	if hello.ObserverName == "" {
		hello.ObserverName = "observer"
	}

	out = make(chan []byte, 64)
	welcome := s.world.ObserverJoin(hello.ObserverName, out)

	if err := writeJSON(conn, welcome); err != nil {
		s.world.ObserverLeave(welcome.ObserverID)
		return "", nil
	}
	if hello.SinceTick > 0 && s.backlog != nil {
		s.sendBacklog(conn, hello.SinceTick)
	}
	return welcome.ObserverID, out
}

// SetBacklog enables HELLO since_tick replay from the activation index.
func (s *Server) SetBacklog(b Backlog) { s.backlog = b }

// sendBacklog replays recorded activations at or after fromTick,
// between WELCOME and the first live frame. Best effort: on a query
// failure the observer gets live frames only.
func (s *Server) sendBacklog(conn *websocket.Conn, fromTick uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	rows, err := s.backlog.ActivationsSince(ctx, fromTick, backlogLimit)
	if err != nil {
		if s.log != nil {
			s.log.Printf("backlog query: %v", err)
		}
		return
	}
	for _, r := range rows {
		msg := protocol.ActivatedMsg{
			Type:      protocol.TypeActivated,
			Tick:      r.Tick,
			ActorID:   r.ActorID,
			Scheme:    r.Scheme,
			Section:   r.Section,
			Restoring: r.Restoring,
			Label:     r.Label,
		}
		if err := writeJSON(conn, msg); err != nil {
			return
		}
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
