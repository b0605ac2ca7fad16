package main

import (
	"encoding/json"
	"flag"
	"math"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"skyduel.io/internal/logging"
	"skyduel.io/internal/protocol"
	"skyduel.io/internal/sim/missions"
	"skyduel.io/internal/sim/script"
	"skyduel.io/internal/sim/world/kernel/model"
)

func main() {
	var (
		url      = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name     = flag.String("name", "bot", "pilot name")
		encoding = flag.String("encoding", protocol.EncodingJSON, "STATE encoding: json or msgpack")
		radius   = flag.Float64("radius", 800, "circuit radius")
		speed    = flag.Float64("speed", 160, "circuit speed")
		logLevel = flag.String("log_level", "info", "trace, debug, info, warn or error")
	)
	flag.Parse()

	logger := logging.New("bot", logging.Options{Level: *logLevel, Console: true})
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("dial")
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		PilotName:       *name,
		Encoding:        *encoding,
		MaxQueue:        8,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatal().Err(err).Msg("send HELLO")
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	go func() {
		<-stop
		_ = conn.Close()
	}()

	var p *pilot
	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if mt == websocket.BinaryMessage {
			st, err := protocol.DecodeState(msg, true)
			if err != nil || p == nil {
				continue
			}
			p.handleState(conn, st)
			continue
		}

		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			logger.Info().
				Str("session", w.SessionID).
				Str("mission", w.Mission.MissionID).
				Int("tick_rate", w.Mission.TickRateHz).
				Int64("seed", w.Mission.Seed).
				Msg("WELCOME")
			p = newPilot(logger, *radius, *speed)

		case protocol.TypeState:
			st, err := protocol.DecodeState(msg, false)
			if err != nil || p == nil {
				continue
			}
			p.handleState(conn, st)

		case protocol.TypeError:
			var e protocol.ErrorMsg
			_ = json.Unmarshal(msg, &e)
			logger.Error().Str("code", e.Code).Str("message", e.Message).Msg("server error")
			return
		}
	}
}

// pilot flies a level circuit around the point where it first appeared.
type pilot struct {
	log     zerolog.Logger
	circuit missions.EnemySpec
	started bool
	seq     uint64
	kills   int
}

func newPilot(logger zerolog.Logger, radius, speed float64) *pilot {
	return &pilot{
		log:     logger,
		circuit: missions.EnemySpec{Radius: radius, Speed: speed},
	}
}

func (p *pilot) handleState(conn *websocket.Conn, st protocol.StateMsg) {
	if st.Player.Down {
		return
	}
	if !p.started {
		// Start the circuit at the current position at the current clock.
		pos := st.Player.Pos
		p.circuit.Center = [3]float64{pos[0] - p.circuit.Radius, pos[1], pos[2]}
		p.circuit.Phase = -(p.circuit.Speed / p.circuit.Radius) * st.Clock * 180 / math.Pi
		p.started = true
	}
	for _, e := range st.Events {
		if e.Type == model.EventEnemyDestroyed.String() {
			p.kills++
			p.log.Info().Int("enemy", e.EntityID).Int("kills", p.kills).Msg("splash")
		}
	}

	in := p.next(st)
	if err := conn.WriteJSON(in); err != nil {
		p.log.Debug().Err(err).Msg("send INPUT")
	}
}

// next is the INPUT for the tick after st: the circuit pose at the state's
// clock, with guns on whenever an enemy sits inside the forward cone.
func (p *pilot) next(st protocol.StateMsg) protocol.InputMsg {
	pose := script.PoseAt(p.circuit, st.Clock)
	p.seq++
	in := protocol.InputMsg{
		Type:            protocol.TypeInput,
		ProtocolVersion: protocol.Version,
		Seq:             p.seq,
		Forward:         pose.Forward,
	}
	pos := [3]float64(pose.Pos)
	in.Pos = &pos

	for _, e := range st.Enemies {
		if e.Down {
			continue
		}
		target := model.Vec3(e.Pos)
		if script.InCone(pose, target, 900, 6) {
			in.FireGun = true
		}
		if script.InCone(pose, target, 1500, 3) {
			in.FireMissile = true
		}
	}
	return in
}
