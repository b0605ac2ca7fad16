package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"skyduel.io/internal/protocol"
	"skyduel.io/internal/sim/world"
	"skyduel.io/internal/sim/world/bounds"
	"skyduel.io/internal/sim/world/kernel/model"
)

func startWorld(t *testing.T) *world.World {
	t.Helper()
	w, err := world.New(world.WorldConfig{
		MissionID:  "ws_test",
		Seed:       3,
		TickRateHz: 50,
		Bounds:     bounds.Bounds{MinX: -1000, MaxX: 1000, MinZ: -1000, MaxZ: 1000, Ceiling: 4000, WarningMargin: 50},
		Player:     world.PlayerConfig{Spawn: model.Vec3{0, 1500, 0}},
		Enemies:    []world.EnemyConfig{{ID: 1, Spawn: model.Vec3{300, 1500, 300}}},
	}, nil)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
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
	return w
}

func dial(t *testing.T, srvURL string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srvURL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func TestServer_HandshakeAndState(t *testing.T) {
	w := startWorld(t)
	s := NewServer(w, protocol.CatalogDigests{WeaponsDigest: "w"}, zerolog.Nop())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dial(t, srv.URL)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	if err := conn.WriteJSON(protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		PilotName:       "tester",
		Encoding:        protocol.EncodingMsgpack,
	}); err != nil {
		t.Fatalf("write hello: %v", err)
	}
	var welcome protocol.WelcomeMsg
	if err := conn.ReadJSON(&welcome); err != nil {
		t.Fatalf("read welcome: %v", err)
	}
	if welcome.Type != protocol.TypeWelcome || welcome.Mission.MissionID != "ws_test" || welcome.Encoding != protocol.EncodingMsgpack {
		t.Fatalf("welcome=%+v", welcome)
	}
	if welcome.Catalogs.WeaponsDigest != "w" {
		t.Fatalf("catalogs=%+v", welcome.Catalogs)
	}

	pos := [3]float64{10, 1500, 0}
	if err := conn.WriteJSON(protocol.InputMsg{
		Type:            protocol.TypeInput,
		ProtocolVersion: protocol.Version,
		Seq:             5,
		Pos:             &pos,
		Forward:         [3]float64{0, 0, -1},
	}); err != nil {
		t.Fatalf("write input: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		mt, b, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read state: %v", err)
		}
		if mt != websocket.BinaryMessage {
			t.Fatalf("message type=%d want binary", mt)
		}
		st, err := protocol.DecodeState(b, true)
		if err != nil {
			t.Fatalf("decode state: %v", err)
		}
		if st.AckSeq == 5 && st.Player.Pos == pos {
			return
		}
	}
	t.Fatalf("input was never reflected in STATE")
}

func TestServer_SecondPilotRejected(t *testing.T) {
	w := startWorld(t)
	s := NewServer(w, protocol.CatalogDigests{}, zerolog.Nop())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	hello := protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version}

	a := dial(t, srv.URL)
	defer a.Close()
	_ = a.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := a.WriteJSON(hello); err != nil {
		t.Fatalf("write hello: %v", err)
	}
	var welcome protocol.WelcomeMsg
	if err := a.ReadJSON(&welcome); err != nil || welcome.Type != protocol.TypeWelcome {
		t.Fatalf("first pilot welcome=%+v err=%v", welcome, err)
	}

	b := dial(t, srv.URL)
	defer b.Close()
	_ = b.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := b.WriteJSON(hello); err != nil {
		t.Fatalf("write hello: %v", err)
	}
	var em protocol.ErrorMsg
	if err := b.ReadJSON(&em); err != nil {
		t.Fatalf("read error: %v", err)
	}
	if em.Type != protocol.TypeError || em.Code != protocol.ErrMissionBusy {
		t.Fatalf("error msg=%+v", em)
	}
}

func TestServer_BadVersionRejected(t *testing.T) {
	w := startWorld(t)
	s := NewServer(w, protocol.CatalogDigests{}, zerolog.Nop())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dial(t, srv.URL)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteJSON(protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: "0.1"}); err != nil {
		t.Fatalf("write hello: %v", err)
	}
	var em protocol.ErrorMsg
	if err := conn.ReadJSON(&em); err != nil {
		t.Fatalf("read error: %v", err)
	}
	if em.Code != protocol.ErrProtoVersion {
		t.Fatalf("code=%q", em.Code)
	}
}

func TestDecodeInput(t *testing.T) {
	raw, _ := json.Marshal(protocol.InputMsg{
		Type:            protocol.TypeInput,
		ProtocolVersion: protocol.Version,
		Seq:             9,
		FireGun:         true,
	})
	in, seq, err := decodeInput(raw)
	if err != nil {
		t.Fatalf("decodeInput: %v", err)
	}
	if seq != 9 || !in.FireGun || in.Player != nil {
		t.Fatalf("in=%+v seq=%d", in, seq)
	}

	bad := []string{
		`{"type":"HELLO","protocol_version":"1.0"}`,
		`{"type":"INPUT","protocol_version":"0.1","seq":1}`,
		`{"type":"INPUT","protocol_version":"1.0","seq":1,"pos":[1]}`,
	}
	for _, s := range bad {
		if _, _, err := decodeInput([]byte(s)); err == nil {
			t.Fatalf("expected error for %s", s)
		}
	}
}
