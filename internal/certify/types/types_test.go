package types_test

import (
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/attendly/certserver/internal/certify/types"
)

func TestFormatCode_ZeroPadded(t *testing.T) {
	cases := map[int]string{
		1:      "000001",
		42:     "000042",
		999999: "999999",
	}
	for seq, want := range cases {
		if got := types.FormatCode(seq); got != want {
			t.Errorf("FormatCode(%d) = %q, want %q", seq, got, want)
		}
	}
}

func TestFormatCode_AlwaysSixDigits(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seq := rapid.IntRange(1, 999999).Draw(t, "seq")
		code := types.FormatCode(seq)
		if len(code) != 6 {
			t.Fatalf("FormatCode(%d) = %q, want 6 characters", seq, code)
		}
	})
}

func TestPlacement_Scale(t *testing.T) {
	// Preview point (50,50) on a 500x500 preview of a 1000x1000 template
	// lands at native (100,100).
	p := types.Placement{X: 50, Y: 50, FontSize: 40}
	scaled := p.Scale(1000.0/500.0, 1000.0/500.0)

	if scaled.X != 100 || scaled.Y != 100 {
		t.Errorf("scaled placement = (%v,%v), want (100,100)", scaled.X, scaled.Y)
	}
	if scaled.FontSize != 80 {
		t.Errorf("scaled font size = %v, want 80", scaled.FontSize)
	}
}

func TestPlacement_Scale_StaysInNativeBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		previewW := rapid.IntRange(1, 4000).Draw(t, "previewW")
		previewH := rapid.IntRange(1, 4000).Draw(t, "previewH")
		nativeW := rapid.IntRange(1, 8000).Draw(t, "nativeW")
		nativeH := rapid.IntRange(1, 8000).Draw(t, "nativeH")

		p := types.Placement{
			X: rapid.Float64Range(0, float64(previewW)).Draw(t, "x"),
			Y: rapid.Float64Range(0, float64(previewH)).Draw(t, "y"),
		}
		scaled := p.Scale(float64(nativeW)/float64(previewW), float64(nativeH)/float64(previewH))

		if scaled.X < 0 || scaled.X > float64(nativeW)+1e-6 {
			t.Fatalf("scaled X %v outside [0,%d]", scaled.X, nativeW)
		}
		if scaled.Y < 0 || scaled.Y > float64(nativeH)+1e-6 {
			t.Fatalf("scaled Y %v outside [0,%d]", scaled.Y, nativeH)
		}
	})
}

func TestClaimWindow_Open(t *testing.T) {
	opens := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	w := types.ClaimWindow{OpensAt: opens, Duration: 600 * time.Second}

	if !w.Open(opens) {
		t.Error("window should be open at opensAt")
	}
	if !w.Open(opens.Add(599 * time.Second)) {
		t.Error("window should be open at t=599s")
	}
	if w.Open(opens.Add(600 * time.Second)) {
		t.Error("window should be closed at t=600s")
	}
	if w.Open(opens.Add(601 * time.Second)) {
		t.Error("window should be closed at t=601s")
	}
}

// Once Open reports false it must never report true again for a later
// instant.
func TestClaimWindow_Open_Monotonic(t *testing.T) {
	opens := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rapid.Check(t, func(t *rapid.T) {
		w := types.ClaimWindow{
			OpensAt:  opens,
			Duration: time.Duration(rapid.Int64Range(0, 3600).Draw(t, "dur")) * time.Second,
		}
		a := opens.Add(time.Duration(rapid.Int64Range(0, 7200).Draw(t, "a")) * time.Second)
		step := time.Duration(rapid.Int64Range(0, 7200).Draw(t, "step")) * time.Second
		b := a.Add(step)

		if !w.Open(a) && w.Open(b) {
			t.Fatalf("window reopened: closed at %v but open at %v", a, b)
		}
	})
}

func TestEvent_Status(t *testing.T) {
	opens := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	active := types.Event{State: types.StateActive}
	if got := active.Status(opens); got != types.StatusActive {
		t.Errorf("active event status = %q", got)
	}

	ended := types.Event{
		State:  types.StateEnded,
		Window: &types.ClaimWindow{OpensAt: opens, Duration: 600 * time.Second},
	}
	if got := ended.Status(opens.Add(time.Minute)); got != types.StatusClaimOpen {
		t.Errorf("status inside window = %q, want %q", got, types.StatusClaimOpen)
	}
	if got := ended.Status(opens.Add(time.Hour)); got != types.StatusClaimClosed {
		t.Errorf("status after window = %q, want %q", got, types.StatusClaimClosed)
	}
}

func TestArtifactRef(t *testing.T) {
	got := types.ArtifactRef("ev1", "stu1")
	if got != "cert-ev1-stu1.png" {
		t.Errorf("ArtifactRef = %q", got)
	}
}
