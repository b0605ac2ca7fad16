package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"skyduel.io/internal/persistence/snapshot"
	"skyduel.io/internal/sim/catalogs"
	"skyduel.io/internal/sim/missions"
	"skyduel.io/internal/sim/tuning"
	"skyduel.io/internal/sim/world"
	"skyduel.io/internal/sim/world/kernel/model"
)

// SQLiteIndex is a secondary, queryable index of ticks, combat events and
// snapshots. Writes are queued and applied by one goroutine in batched
// transactions; the JSONL logs remain the source of truth.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropTick     atomic.Uint64
	dropEvent    atomic.Uint64
	dropSnapshot atomic.Uint64
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqEvent
	reqSnapshot
	reqSync
)

type req struct {
	kind    reqKind
	mission string

	tick     world.TickLogEntry
	event    model.Event
	snapshot snapshotRow
	done     chan struct{}
}

type snapshotRow struct {
	Tick       uint64
	Path       string
	Seed       int64
	Enemies    int
	Bullets    int
	Missiles   int
	Explosions int
	Digest     string
}

// Stats reports queue pressure. Drops happen when the writer falls behind.
type Stats struct {
	QueueDepth        int
	QueueCapacity     int
	DropTickTotal     uint64
	DropEventTotal    uint64
	DropSnapshotTotal uint64
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS missions (
			mission_id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			seed INTEGER NOT NULL,
			enemies INTEGER NOT NULL,
			raw_json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			mission_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			dt REAL NOT NULL,
			digest TEXT NOT NULL,
			fire_gun INTEGER NOT NULL,
			fire_missile INTEGER NOT NULL,
			enemy_intents INTEGER NOT NULL,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (mission_id, tick)
		);`,
		`CREATE TABLE IF NOT EXISTS combat_events (
			mission_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			type TEXT NOT NULL,
			entity_id INTEGER NOT NULL,
			source_id INTEGER NOT NULL,
			weapon TEXT,
			x REAL NOT NULL,
			y REAL NOT NULL,
			z REAL NOT NULL,
			damage REAL NOT NULL,
			PRIMARY KEY (mission_id, tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_combat_events_type ON combat_events(mission_id, type, tick);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			mission_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			path TEXT NOT NULL,
			seed INTEGER NOT NULL,
			enemies INTEGER NOT NULL,
			bullets INTEGER NOT NULL,
			missiles INTEGER NOT NULL,
			explosions INTEGER NOT NULL,
			digest TEXT NOT NULL,
			PRIMARY KEY (mission_id, tick)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:        len(s.ch),
		QueueCapacity:     cap(s.ch),
		DropTickTotal:     s.dropTick.Load(),
		DropEventTotal:    s.dropEvent.Load(),
		DropSnapshotTotal: s.dropSnapshot.Load(),
	}
}

// Sync blocks until every request queued before it has been committed.
func (s *SQLiteIndex) Sync(ctx context.Context) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	done := make(chan struct{})
	select {
	case s.ch <- req{kind: reqSync, done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Mission binds the index to one mission id so it can be used as the
// world's tick and event logger.
func (s *SQLiteIndex) Mission(id string) *MissionIndex {
	return &MissionIndex{s: s, mission: id}
}

type MissionIndex struct {
	s       *SQLiteIndex
	mission string
}

func (m *MissionIndex) WriteTick(entry world.TickLogEntry) error {
	s := m.s
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqTick, mission: m.mission, tick: entry}:
	default:
		s.dropTick.Add(1)
	}
	return nil
}

func (m *MissionIndex) WriteEvent(e model.Event) error {
	s := m.s
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqEvent, mission: m.mission, event: e}:
	default:
		s.dropEvent.Add(1)
	}
	return nil
}

func (m *MissionIndex) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	s := m.s
	if s == nil || s.closed.Load() {
		return
	}
	r := snapshotRow{
		Tick:       snap.Header.Tick,
		Path:       path,
		Seed:       snap.Seed,
		Enemies:    len(snap.Enemies),
		Bullets:    len(snap.Bullets),
		Missiles:   len(snap.Missiles),
		Explosions: len(snap.Explosions),
		Digest:     snap.Digest,
	}
	select {
	case s.ch <- req{kind: reqSnapshot, mission: m.mission, snapshot: r}:
	default:
		s.dropSnapshot.Add(1)
	}
}

// UpsertMissions records every configured mission. It runs synchronously at
// startup.
func (s *SQLiteIndex) UpsertMissions(cfg missions.Config) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO missions(mission_id,title,seed,enemies,raw_json,updated_at) VALUES(?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, m := range cfg.Missions {
		b, _ := json.Marshal(m)
		if _, err := stmt.Exec(m.ID, m.Title, m.Seed, len(m.Enemies), string(b), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// UpsertCatalogs stores the applied weapon and aircraft catalogs and tuning
// as canonical JSON with their digests.
func (s *SQLiteIndex) UpsertCatalogs(cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	if b, _ := json.Marshal(cats.Weapons.ByID); len(b) > 0 {
		rows = append(rows, kv{name: "weapons", digest: cats.Weapons.Digest, json: b})
	}
	if b, _ := json.Marshal(cats.Aircraft.ByID); len(b) > 0 {
		rows = append(rows, kv{name: "aircraft", digest: cats.Aircraft.Digest, json: b})
	}
	if b, _ := json.Marshal(tune); len(b) > 0 {
		rows = append(rows, kv{name: "tuning", digest: tune.Digest(), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertTick, _ := s.db.Prepare(`INSERT OR REPLACE INTO ticks(mission_id,tick,dt,digest,fire_gun,fire_missile,enemy_intents,raw_json) VALUES(?,?,?,?,?,?,?,?)`)
	insertEvent, _ := s.db.Prepare(`INSERT OR REPLACE INTO combat_events(mission_id,tick,seq,type,entity_id,source_id,weapon,x,y,z,damage) VALUES(?,?,?,?,?,?,?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(mission_id,tick,path,seed,enemies,bullets,missiles,explosions,digest) VALUES(?,?,?,?,?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertTick, insertEvent, insertSnapshot} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second

		lastEventTick    uint64
		lastEventMission string
		eventSeq         int
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	for r := range s.ch {
		if r.kind == reqSync {
			commit()
			close(r.done)
			continue
		}
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqTick:
			if insertTick == nil {
				break
			}
			t := r.tick
			b, _ := json.Marshal(t)
			if _, err := tx.Stmt(insertTick).Exec(
				r.mission,
				int64(t.Tick),
				t.Dt,
				t.Digest,
				boolInt(t.Input.FireGun),
				boolInt(t.Input.FireMissile),
				len(t.Input.Enemies),
				string(b),
			); err != nil {
				rollback()
				continue
			}
			opCount++

		case reqEvent:
			if insertEvent == nil {
				break
			}
			e := r.event
			if e.Tick != lastEventTick || r.mission != lastEventMission {
				lastEventTick = e.Tick
				lastEventMission = r.mission
				eventSeq = 0
			}
			seq := eventSeq
			eventSeq++
			if _, err := tx.Stmt(insertEvent).Exec(
				r.mission,
				int64(e.Tick),
				seq,
				e.Type.String(),
				e.EntityID,
				e.SourceID,
				e.Weapon,
				e.Pos[0], e.Pos[1], e.Pos[2],
				e.Damage,
			); err != nil {
				rollback()
				continue
			}
			opCount++

		case reqSnapshot:
			if insertSnapshot == nil {
				break
			}
			sn := r.snapshot
			if _, err := tx.Stmt(insertSnapshot).Exec(
				r.mission,
				int64(sn.Tick),
				sn.Path,
				sn.Seed,
				sn.Enemies,
				sn.Bullets,
				sn.Missiles,
				sn.Explosions,
				sn.Digest,
			); err != nil {
				rollback()
				continue
			}
			opCount++
		}
		flushIfNeeded()
	}

	commit()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
