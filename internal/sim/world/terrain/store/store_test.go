package store

import (
	"testing"

	genpkg "skyduel.io/internal/sim/world/terrain/gen"
)

func TestTileMatchesSampler(t *testing.T) {
	s := genpkg.NewSampler(7742)
	ts := NewTileStore(s, 8, 4)
	tile := ts.Tile(TileKey{TX: -1, TZ: 2})
	ox, oz := tile.Origin()
	for _, c := range [][2]int{{0, 0}, {5, 9}, {TileSize - 1, TileSize - 1}} {
		wx := ox + float64(c[0])*8
		wz := oz + float64(c[1])*8
		if got, want := tile.Height(c[0], c[1]), float32(s.HeightAt(wx, wz)); got != want {
			t.Fatalf("sample %v: got %v want %v", c, got, want)
		}
		if tile.IsWater(c[0], c[1]) != s.IsWaterAt(wx, wz) {
			t.Fatalf("water mismatch at %v", c)
		}
	}
}

func TestTileStoreCachesAndEvicts(t *testing.T) {
	s := genpkg.NewSampler(1)
	ts := NewTileStore(s, 16, 2)
	a := ts.Tile(TileKey{TX: 0, TZ: 0})
	if ts.Tile(TileKey{TX: 0, TZ: 0}) != a {
		t.Fatalf("expected cached tile")
	}
	ts.Tile(TileKey{TX: 1, TZ: 0})
	ts.Tile(TileKey{TX: 2, TZ: 0})
	keys := ts.LoadedTileKeys()
	if len(keys) != 2 || keys[0] != (TileKey{TX: 1, TZ: 0}) {
		t.Fatalf("unexpected keys after eviction: %v", keys)
	}
}

func TestTileStoreDropsTilesOnReseed(t *testing.T) {
	s := genpkg.NewSampler(1)
	ts := NewTileStore(s, 16, 8)
	a := ts.Tile(TileKey{})
	d := a.Digest()
	s.SetSeed(2)
	b := ts.Tile(TileKey{})
	if a == b {
		t.Fatalf("tile survived reseed")
	}
	if b.Digest() == d {
		t.Fatalf("digest unchanged across seeds")
	}
}

func TestTileAtNegativeCoordinates(t *testing.T) {
	s := genpkg.NewSampler(1)
	ts := NewTileStore(s, 10, 8)
	tile := ts.TileAt(-1, -1)
	if tile.TX != -1 || tile.TZ != -1 {
		t.Fatalf("TileAt(-1,-1) = (%d,%d)", tile.TX, tile.TZ)
	}
}

func TestTileAtFractionalAndBoundary(t *testing.T) {
	s := genpkg.NewSampler(1)
	ts := NewTileStore(s, 8, 16)
	span := float64(TileSize) * 8
	for _, x := range []float64{-0.5, -span - 0.5, -span, 0, span - 0.25, span, 3.5 * span} {
		tile := ts.TileAt(x, x)
		ox, oz := tile.Origin()
		if x < ox || x >= ox+span || x < oz || x >= oz+span {
			t.Fatalf("TileAt(%v) = (%d,%d) covering [%v,%v)", x, tile.TX, tile.TZ, ox, ox+span)
		}
	}
	if tile := ts.TileAt(-0.5, 0.5); tile.TX != -1 || tile.TZ != 0 {
		t.Fatalf("TileAt(-0.5,0.5) = (%d,%d)", tile.TX, tile.TZ)
	}
}

func TestTileAtNonIntegerStep(t *testing.T) {
	s := genpkg.NewSampler(1)
	ts := NewTileStore(s, 2.5, 16)
	span := float64(TileSize) * 2.5
	x := 3*span - 0.1
	tile := ts.TileAt(x, 0)
	ox, _ := tile.Origin()
	if tile.TX != 2 || x < ox || x >= ox+span {
		t.Fatalf("TileAt(%v) = %d origin %v", x, tile.TX, ox)
	}
}

func TestTileStoreEvictsLeastRecentlyUsed(t *testing.T) {
	s := genpkg.NewSampler(1)
	ts := NewTileStore(s, 16, 2)
	a := ts.Tile(TileKey{TX: 0})
	ts.Tile(TileKey{TX: 1})
	// Using tile 0 again makes tile 1 the eviction candidate.
	ts.Tile(TileKey{TX: 0})
	ts.Tile(TileKey{TX: 2})
	keys := ts.LoadedTileKeys()
	if len(keys) != 2 || keys[0] != (TileKey{TX: 0}) || keys[1] != (TileKey{TX: 2}) {
		t.Fatalf("keys after eviction: %v", keys)
	}
	if ts.Tile(TileKey{TX: 0}) != a {
		t.Fatalf("recently used tile was evicted")
	}
}
