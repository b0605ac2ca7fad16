package rates

import "testing"

func TestWindow_Allow(t *testing.T) {
	var w Window
	for i := 0; i < 3; i++ {
		if ok, _ := w.Allow(100, 10, 3); !ok {
			t.Fatalf("event %d rejected", i)
		}
	}
	ok, cd := w.Allow(104, 10, 3)
	if ok || cd != 6 {
		t.Fatalf("4th event: ok=%v cooldown=%d", ok, cd)
	}
	if ok, _ := w.Allow(110, 10, 3); !ok {
		t.Fatalf("new window rejected")
	}
	if w.Start != 110 || w.Count != 1 {
		t.Fatalf("window=%+v", w)
	}
}

func TestWindow_Unlimited(t *testing.T) {
	var w Window
	for i := 0; i < 100; i++ {
		if ok, _ := w.Allow(uint64(i), 0, 1); !ok {
			t.Fatalf("zero window must allow")
		}
	}
}
