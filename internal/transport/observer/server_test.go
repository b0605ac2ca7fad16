package observer

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"skyduel.io/internal/observerproto"
	"skyduel.io/internal/protocol"
	"skyduel.io/internal/sim/world"
	"skyduel.io/internal/sim/world/bounds"
	"skyduel.io/internal/sim/world/kernel/model"
	"skyduel.io/internal/sim/world/terrain/store"
)

func newWorld(t *testing.T) *world.World {
	t.Helper()
	w, err := world.New(world.WorldConfig{
		MissionID:  "obs_test",
		Seed:       11,
		TickRateHz: 50,
		Bounds:     bounds.Bounds{MinX: -1000, MaxX: 1000, MinZ: -1000, MaxZ: 1000, Ceiling: 4000, WarningMargin: 50},
		Player:     world.PlayerConfig{Spawn: model.Vec3{0, 1500, 0}},
		Enemies: []world.EnemyConfig{
			{ID: 1, Spawn: model.Vec3{300, 1500, 300}},
			{ID: 2, Spawn: model.Vec3{-300, 1500, 300}},
		},
	}, nil)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	return w
}

func runWorld(t *testing.T, w *world.World) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestBootstrap(t *testing.T) {
	w := newWorld(t)
	s := NewServer(w, zerolog.Nop())
	mux := http.NewServeMux()
	s.Register(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/observer/bootstrap")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	var b observerproto.BootstrapResponse
	if err := json.NewDecoder(resp.Body).Decode(&b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b.ProtocolVersion != observerproto.Version || b.MissionID != "obs_test" {
		t.Fatalf("bootstrap=%+v", b)
	}
	if b.MissionParams.Seed != 11 || b.MissionParams.TickRateHz != 50 || b.MissionParams.Ceiling != 4000 {
		t.Fatalf("params=%+v", b.MissionParams)
	}
	if b.MissionParams.TileSize != store.TileSize {
		t.Fatalf("tile size=%d", b.MissionParams.TileSize)
	}
	if len(b.Enemies) != 2 || b.Enemies[0] != 1 || b.Enemies[1] != 2 {
		t.Fatalf("enemies=%v", b.Enemies)
	}
}

func TestTile(t *testing.T) {
	w := newWorld(t)
	s := NewServer(w, zerolog.Nop())
	srv := httptest.NewServer(s.TileHandler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "?tx=-1&tz=2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var tr observerproto.TileResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if tr.TX != -1 || tr.TZ != 2 || tr.Size != store.TileSize {
		t.Fatalf("tile=%d,%d size=%d", tr.TX, tr.TZ, tr.Size)
	}
	if len(tr.Heights) != store.TileSize*store.TileSize || len(tr.Water) != len(tr.Heights) {
		t.Fatalf("heights=%d water=%d", len(tr.Heights), len(tr.Water))
	}
	want := w.Tiles().Tile(store.TileKey{TX: -1, TZ: 2}).Digest()
	if tr.Digest != hex.EncodeToString(want[:]) {
		t.Fatalf("digest mismatch")
	}
	ox, _ := w.Tiles().Tile(store.TileKey{TX: -1, TZ: 2}).Origin()
	if tr.Origin[0] != ox {
		t.Fatalf("origin=%v want x=%v", tr.Origin, ox)
	}

	bad, err := http.Get(srv.URL + "?tx=a&tz=0")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	bad.Body.Close()
	if bad.StatusCode != http.StatusBadRequest {
		t.Fatalf("status=%d", bad.StatusCode)
	}
}

func TestWSStreamsState(t *testing.T) {
	w := newWorld(t)
	runWorld(t, w)
	s := NewServer(w, zerolog.Nop())
	srv := httptest.NewServer(s.WSHandler())
	defer srv.Close()

	u := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if err := conn.WriteJSON(observerproto.SubscribeMsg{Type: "SUBSCRIBE", ProtocolVersion: observerproto.Version}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var last uint64
	for i := 0; i < 3; i++ {
		var st protocol.StateMsg
		if err := conn.ReadJSON(&st); err != nil {
			t.Fatalf("read state: %v", err)
		}
		if st.Type != protocol.TypeState || len(st.Enemies) != 2 {
			t.Fatalf("state=%+v", st)
		}
		if len(st.Events) != 0 {
			t.Fatalf("events not requested but got %d", len(st.Events))
		}
		if i > 0 && st.Tick <= last {
			t.Fatalf("tick %d after %d", st.Tick, last)
		}
		last = st.Tick
	}
}

func TestWSRejectsBadSubscribe(t *testing.T) {
	w := newWorld(t)
	s := NewServer(w, zerolog.Nop())
	srv := httptest.NewServer(s.WSHandler())
	defer srv.Close()

	u := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if err := conn.WriteJSON(observerproto.SubscribeMsg{Type: "HELLO", ProtocolVersion: observerproto.Version}); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("expected policy close, got %v", err)
	}
}

func TestIsLoopbackRemote(t *testing.T) {
	cases := map[string]bool{
		"127.0.0.1:5555": true,
		"[::1]:80":       true,
		"10.0.0.3:9000":  false,
		"garbage":        false,
	}
	for addr, want := range cases {
		if got := isLoopbackRemote(addr); got != want {
			t.Fatalf("%s: got %v want %v", addr, got, want)
		}
	}
}
