package observer

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"skyduel.io/internal/observerproto"
	"skyduel.io/internal/sim/world"
	"skyduel.io/internal/sim/world/terrain/store"
	"skyduel.io/internal/transport/frames"
)

// Server exposes read-only, loopback-only views of a running mission: a
// bootstrap document, a per-tick STATE stream and terrain height tiles.
type Server struct {
	world *world.World
	log   zerolog.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64
}

func NewServer(w *world.World, logger zerolog.Logger) *Server {
	return &Server{
		world: w,
		log:   logger.With().Str("component", "observer").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

// Register mounts the observer endpoints on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/observer/bootstrap", s.BootstrapHandler())
	mux.HandleFunc("/observer/tile", s.TileHandler())
	mux.HandleFunc("/observer/ws", s.WSHandler())
}

func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		cfg := s.world.Config()
		resp := observerproto.BootstrapResponse{
			ProtocolVersion: observerproto.Version,
			MissionID:       cfg.MissionID,
			Tick:            s.world.CurrentTick(),
			MissionParams: observerproto.MissionParams{
				TickRateHz: cfg.TickRateHz,
				Seed:       cfg.Seed,
				MaxDt:      cfg.MaxDt,
				Bounds:     [4]float64{cfg.Bounds.MinX, cfg.Bounds.MaxX, cfg.Bounds.MinZ, cfg.Bounds.MaxZ},
				Ceiling:    cfg.Bounds.Ceiling,
				TileSize:   store.TileSize,
				TileStep:   s.world.Tiles().Step(),
			},
		}
		for _, e := range cfg.Enemies {
			resp.Enemies = append(resp.Enemies, e.ID)
		}

		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

// TileHandler serves one terrain height tile by tile coordinate. Tiles are
// sampled from the mission seed and cached by the world's tile store.
func (s *Server) TileHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		q := r.URL.Query()
		tx, err1 := strconv.Atoi(q.Get("tx"))
		tz, err2 := strconv.Atoi(q.Get("tz"))
		if err1 != nil || err2 != nil {
			http.Error(rw, "tx and tz must be integers", http.StatusBadRequest)
			return
		}
		const maxTileCoord = 1 << 16
		if tx < -maxTileCoord || tx > maxTileCoord || tz < -maxTileCoord || tz > maxTileCoord {
			http.Error(rw, "tile out of range", http.StatusBadRequest)
			return
		}

		t := s.world.Tiles().Tile(store.TileKey{TX: tx, TZ: tz})
		ox, oz := t.Origin()
		d := t.Digest()
		resp := observerproto.TileResponse{
			ProtocolVersion: observerproto.Version,
			TX:              t.TX,
			TZ:              t.TZ,
			Size:            store.TileSize,
			Step:            t.Step,
			Origin:          [2]float64{ox, oz},
			Digest:          hex.EncodeToString(d[:]),
			Heights:         t.Heights,
			Water:           t.Water,
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var sub observerproto.SubscribeMsg
		if err := json.Unmarshal(msg, &sub); err != nil {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad subscribe"), time.Now().Add(time.Second))
			return
		}
		if sub.Type != "SUBSCRIBE" || sub.ProtocolVersion != observerproto.Version {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected SUBSCRIBE"), time.Now().Add(time.Second))
			return
		}

		sid := fmt.Sprintf("O%d", s.nextID.Add(1))
		tickOut := make(chan world.Snapshot, 8)
		select {
		case s.world.ObserverJoin() <- world.ObserverJoinRequest{SessionID: sid, Out: tickOut}:
		default:
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server busy"), time.Now().Add(time.Second))
			return
		}
		defer func() {
			select {
			case s.world.ObserverLeave() <- sid:
			default:
				// Mission loop is stopping; nothing else to do.
			}
		}()
		s.log.Debug().Str("session", sid).Msg("observer joined")

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		writeErr := make(chan error, 1)
		go func() {
			for {
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case snap := <-tickOut:
					if !sub.Events {
						snap.Events = nil
					}
					b, err := json.Marshal(frames.FromSnapshot(snap, 0))
					if err != nil {
						continue
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						writeErr <- err
						return
					}
				}
			}
		}()

		// Reader loop: only used to detect the close.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

		// Best-effort wait for the writer to stop so it doesn't outlive conn.
		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
