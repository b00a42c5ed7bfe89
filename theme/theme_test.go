package theme

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go-euclid/pattern"
	"go-euclid/sequencer"
)

func plainTheme() *Theme {
	return New(DefaultPalette(), io.Discard).Plain()
}

func TestRenderPattern(t *testing.T) {
	p, _ := pattern.Generate(12, 7)
	got := plainTheme().RenderPattern(p)
	if want := "●·●●·●·●●·●·"; got != want {
		t.Fatalf("RenderPattern = %q, want %q", got, want)
	}
}

func TestRenderStripPlayhead(t *testing.T) {
	p := pattern.New([]bool{true, false, true})
	th := plainTheme()

	if got := th.RenderStrip(p, 0); got != "▶·●" {
		t.Fatalf("playhead on gate = %q", got)
	}
	if got := th.RenderStrip(p, 1); got != "●▷●" {
		t.Fatalf("playhead on rest = %q", got)
	}
}

func TestRenderBeat(t *testing.T) {
	p := pattern.New([]bool{true, false})
	th := plainTheme()

	gate := th.RenderBeat(p, sequencer.Beat{Number: 2, Position: 2.004, Step: 0, Gate: true, Counter: 1, Elapsed: 1002 * time.Millisecond})
	if !strings.Contains(gate, "gate at beat 2.004 (time in ms: 1002) counter 1") {
		t.Fatalf("unexpected gate line %q", gate)
	}

	rest := th.RenderBeat(p, sequencer.Beat{Number: 1, Position: 1.01, Step: 1, Counter: -1, Elapsed: 505 * time.Millisecond})
	if !strings.Contains(rest, "no gate at beat 1.010 (time in ms: 505)") {
		t.Fatalf("unexpected rest line %q", rest)
	}
}

func TestLoadGPL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.gpl")
	data := "GIMP Palette\nName: Test\nColumns: 2\n# comment\n0 0 0 black\n255 255 255 white\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadGPL(path)
	if err != nil {
		t.Fatalf("LoadGPL: %v", err)
	}
	if p.Name != "Test" || len(p.Colors) != 2 {
		t.Fatalf("unexpected palette %+v", p)
	}
	if mid := p.Lookup(0.5); mid != (RGB{127, 127, 127}) {
		t.Fatalf("Lookup(0.5) = %v", mid)
	}
	if p.Lookup(-1) != p.Colors[0] || p.Lookup(2) != p.Colors[1] {
		t.Fatal("Lookup should clamp")
	}
}

func TestLoadGPLEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.gpl")
	if err := os.WriteFile(path, []byte("GIMP Palette\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadGPL(path); err == nil {
		t.Fatal("expected error for palette without colors")
	}
}

func TestLoadOrDefault(t *testing.T) {
	p, err := LoadOrDefault("")
	if err != nil || p.Name != "plasma" {
		t.Fatalf("LoadOrDefault(\"\") = %+v, %v", p, err)
	}
	if _, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.gpl")); err == nil {
		t.Fatal("expected error for missing palette file")
	}
}
