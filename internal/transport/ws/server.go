package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"skyduel.io/internal/protocol"
	"skyduel.io/internal/sim/world"
	"skyduel.io/internal/sim/world/kernel/model"
	"skyduel.io/internal/sim/world/logic/rates"
	"skyduel.io/internal/transport/frames"
)

// MaxInputsPerSecond caps INPUT messages per pilot. Extra inputs are dropped
// and the pilot receives one RATE_LIMIT error per window.
const MaxInputsPerSecond = 240

// Server accepts one pilot at a time. The pilot sends its integrated pose
// and fire requests as INPUT and receives one STATE per tick.
type Server struct {
	world    *world.World
	log      zerolog.Logger
	catalogs protocol.CatalogDigests

	upgrader websocket.Upgrader
	nextID   atomic.Uint64
	busy     atomic.Bool
}

func NewServer(w *world.World, digests protocol.CatalogDigests, logger zerolog.Logger) *Server {
	return &Server{
		world:    w,
		log:      logger.With().Str("component", "pilot_ws").Logger(),
		catalogs: digests,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		hello, ok := s.handshake(conn)
		if !ok {
			return
		}
		defer s.busy.Store(false)

		sid := fmt.Sprintf("P%d", s.nextID.Add(1))
		enc := protocol.NormalizeEncoding(hello.Encoding)
		log := s.log.With().Str("session", sid).Str("pilot", hello.PilotName).Logger()

		maxQ := hello.MaxQueue
		if maxQ <= 0 {
			maxQ = 4
		}
		if maxQ > 64 {
			maxQ = 64
		}
		out := make(chan world.Snapshot, maxQ)
		resp := make(chan world.Snapshot, 1)
		select {
		case s.world.ObserverJoin() <- world.ObserverJoinRequest{SessionID: sid, Out: out, Resp: resp}:
		default:
			writeError(conn, protocol.ErrMissionBusy, "server busy")
			return
		}
		defer func() {
			select {
			case s.world.ObserverLeave() <- sid:
			default:
			}
		}()

		var first world.Snapshot
		select {
		case first = <-resp:
		case <-time.After(5 * time.Second):
			writeError(conn, protocol.ErrInternal, "mission loop not responding")
			return
		}
		if err := writeJSON(conn, s.welcome(sid, enc)); err != nil {
			return
		}
		log.Info().Str("encoding", enc).Uint64("tick", first.Tick).Msg("pilot joined")

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var ackSeq atomic.Uint64
		notices := make(chan protocol.ErrorMsg, 1)
		writeDone := make(chan struct{})
		go func() {
			defer close(writeDone)
			for {
				select {
				case <-ctx.Done():
					return
				case n := <-notices:
					if err := writeJSON(conn, n); err != nil {
						cancel()
						return
					}
				case snap := <-out:
					msg := frames.FromSnapshot(snap, ackSeq.Load())
					b, binary, err := protocol.EncodeState(enc, &msg)
					if err != nil {
						log.Error().Err(err).Msg("encode state")
						continue
					}
					mt := websocket.TextMessage
					if binary {
						mt = websocket.BinaryMessage
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(mt, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		var dropped, limited uint64
		var window rates.Window
		warnedAt := ^uint64(0)
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			if ok, _ := window.Allow(uint64(time.Now().UnixMilli()), 1000, MaxInputsPerSecond); !ok {
				limited++
				if warnedAt != window.Start {
					warnedAt = window.Start
					select {
					case notices <- protocol.ErrorMsg{
						Type:            protocol.TypeError,
						ProtocolVersion: protocol.Version,
						Code:            protocol.ErrRateLimit,
						Message:         "too many INPUT messages",
					}:
					default:
					}
				}
				continue
			}
			in, seq, err := decodeInput(msg)
			if err != nil {
				log.Debug().Err(err).Msg("bad input")
				continue
			}
			select {
			case s.world.Inputs() <- in:
				ackSeq.Store(seq)
			default:
				dropped++
			}
		}
		cancel()
		<-writeDone
		log.Info().Uint64("dropped_inputs", dropped).Uint64("rate_limited", limited).Msg("pilot left")
	}
}

func (s *Server) handshake(conn *websocket.Conn) (protocol.HelloMsg, bool) {
	var hello protocol.HelloMsg
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return hello, false
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return hello, false
	}
	if base.ProtocolVersion != protocol.Version {
		writeError(conn, protocol.ErrProtoVersion, "bad protocol_version")
		return hello, false
	}
	if err := protocol.ValidateHello(msg); err != nil {
		writeError(conn, protocol.ErrProtoBadRequest, err.Error())
		return hello, false
	}
	if err := json.Unmarshal(msg, &hello); err != nil {
		return hello, false
	}
	if strings.TrimSpace(hello.PilotName) == "" {
		hello.PilotName = "pilot"
	}
	if !s.busy.CompareAndSwap(false, true) {
		writeError(conn, protocol.ErrMissionBusy, "a pilot is already flying this mission")
		return hello, false
	}
	return hello, true
}

func (s *Server) welcome(sid, enc string) protocol.WelcomeMsg {
	cfg := s.world.Config()
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sid,
		Encoding:        enc,
		Mission: protocol.MissionParams{
			MissionID:  cfg.MissionID,
			Seed:       cfg.Seed,
			TickRateHz: cfg.TickRateHz,
			MaxDt:      cfg.MaxDt,
			Bounds: protocol.BoundsInfo{
				MinX:          cfg.Bounds.MinX,
				MaxX:          cfg.Bounds.MaxX,
				MinZ:          cfg.Bounds.MinZ,
				MaxZ:          cfg.Bounds.MaxZ,
				Ceiling:       cfg.Bounds.Ceiling,
				WarningMargin: cfg.Bounds.WarningMargin,
			},
			Aircraft: cfg.Player.Aircraft,
		},
		Catalogs: s.catalogs,
	}
}

// decodeInput validates an INPUT message and converts it to a world input.
func decodeInput(msg []byte) (model.Input, uint64, error) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return model.Input{}, 0, err
	}
	if base.Type != protocol.TypeInput {
		return model.Input{}, 0, fmt.Errorf("unexpected message type %q", base.Type)
	}
	if base.ProtocolVersion != protocol.Version {
		return model.Input{}, 0, fmt.Errorf("bad protocol_version %q", base.ProtocolVersion)
	}
	if err := protocol.ValidateInput(msg); err != nil {
		return model.Input{}, 0, err
	}
	var im protocol.InputMsg
	if err := json.Unmarshal(msg, &im); err != nil {
		return model.Input{}, 0, err
	}
	in := model.Input{FireGun: im.FireGun, FireMissile: im.FireMissile}
	if im.Pos != nil {
		in.Player = &model.Pose{Pos: *im.Pos, Forward: im.Forward}
	}
	return in, im.Seq, nil
}

func writeError(conn *websocket.Conn, code, message string) {
	_ = writeJSON(conn, protocol.ErrorMsg{
		Type:            protocol.TypeError,
		ProtocolVersion: protocol.Version,
		Code:            code,
		Message:         message,
	})
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, code), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
