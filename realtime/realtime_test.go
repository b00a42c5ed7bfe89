package realtime

import (
	"runtime"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"", FailFast, false},
		{"fail-fast", FailFast, false},
		{"degrade", Degrade, false},
		{"ignore", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePolicy(%q) err = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParsePolicy(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestQuantum(t *testing.T) {
	got := DefaultParams().Quantum()
	want := 11609977 * time.Nanosecond
	if got != want {
		t.Fatalf("Quantum() = %v, want %v", got, want)
	}
	if (Params{BufferFrames: 512}).Quantum() != 0 {
		t.Fatal("zero sample rate should give zero quantum")
	}
}

func TestPromoteRejectsBadParams(t *testing.T) {
	for _, p := range []Params{
		{BufferFrames: 0, SampleRate: 44100, Priority: 10},
		{BufferFrames: 512, SampleRate: 0, Priority: 10},
		{BufferFrames: 512, SampleRate: 44100, Priority: 0},
		{BufferFrames: 512, SampleRate: 44100, Priority: 100},
	} {
		if _, err := Promote(p); !errors.Is(err, ErrPromotionFailed) {
			t.Errorf("Promote(%+v) err = %v, want ErrPromotionFailed", p, err)
		}
	}
}

// Promotion depends on privileges, so a refused promotion is accepted as
// long as it is classified. Once promoted, releasing must always work.
func TestPromoteCurrentThread(t *testing.T) {
	type result struct {
		promoteErr error
		releaseErr error
		params     Params
	}
	done := make(chan result, 1)
	go func() {
		// never unlocked: if promotion succeeded the thread is discarded
		runtime.LockOSThread()

		h, err := Promote(DefaultParams())
		if err != nil {
			done <- result{promoteErr: err}
			return
		}
		if h.ThreadID() == 0 {
			done <- result{releaseErr: errors.New("missing thread id")}
			return
		}
		done <- result{params: h.Params(), releaseErr: h.Release()}
	}()

	r := <-done
	if r.promoteErr != nil {
		if !errors.Is(r.promoteErr, ErrPromotionFailed) {
			t.Fatalf("unexpected error class: %v", r.promoteErr)
		}
		t.Logf("promotion not available here: %v", r.promoteErr)
		return
	}
	if r.releaseErr != nil {
		t.Fatalf("Release after successful promotion: %v", r.releaseErr)
	}
	if r.params != DefaultParams() {
		t.Fatalf("Params() = %+v, want %+v", r.params, DefaultParams())
	}
}

func TestReleaseFailureIsClassified(t *testing.T) {
	calls := 0
	h := &Handle{tid: 42, restore: func() error {
		calls++
		return errors.New("operation not permitted")
	}}

	if err := h.Release(); !errors.Is(err, ErrReleaseFailed) {
		t.Fatalf("Release() = %v, want ErrReleaseFailed", err)
	}
	if err := h.Release(); err != nil || calls != 1 {
		t.Fatalf("second Release() = %v after %d restore calls, want no-op", err, calls)
	}
}

func TestReleaseNilHandle(t *testing.T) {
	var h *Handle
	if err := h.Release(); err != nil {
		t.Fatalf("Release on nil handle: %v", err)
	}
}
