package render

import (
	"bytes"
	"image/png"
	"strings"
	"testing"
	"time"

	types "github.com/yungbote/neurobridge-credentials/internal/domain"
)

func sampleInput() Input {
	return Input{
		CredentialID:    "CERT-M1ABCDEF-1A2B3C4D",
		RecipientName:   "Ada Lovelace",
		AchievementName: "Introduction to Go",
		AchievementType: types.AchievementCourse,
		IssuedAt:        time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC),
		VerifyURL:       "https://example.com/verify/CERT-M1ABCDEF-1A2B3C4D",
	}
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(DefaultBranding())
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}

func TestRenderIsDeterministic(t *testing.T) {
	r := newTestRenderer(t)
	in := sampleInput()

	a, err := r.Render(in)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	b, err := r.Render(in)
	if err != nil {
		t.Fatalf("Render(again): %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("Render not deterministic: len(a)=%d len(b)=%d", len(a), len(b))
	}

	in.CredentialID = "CERT-OTHER-00000000"
	c, err := r.Render(in)
	if err != nil {
		t.Fatalf("Render(other id): %v", err)
	}
	if bytes.Equal(a, c) {
		t.Fatalf("Render ignored credential id")
	}
}

func TestRenderProducesFixedCanvasPNG(t *testing.T) {
	r := newTestRenderer(t)
	out, err := r.Render(sampleInput())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if cfg.Width != CanvasWidth || cfg.Height != CanvasHeight {
		t.Fatalf("canvas: want=%dx%d got=%dx%d", CanvasWidth, CanvasHeight, cfg.Width, cfg.Height)
	}
}

func TestRenderRejectsMissingFields(t *testing.T) {
	r := newTestRenderer(t)
	in := sampleInput()
	in.CredentialID = " "
	if _, err := r.Render(in); err == nil {
		t.Fatalf("Render(no id): want error")
	}
	in = sampleInput()
	in.IssuedAt = time.Time{}
	if _, err := r.Render(in); err == nil {
		t.Fatalf("Render(no issued at): want error")
	}
}

func TestLayoutShrinksLongAchievementNames(t *testing.T) {
	r := newTestRenderer(t)

	short := r.Layout(sampleInput())
	if short.AchievementSize != AchievementFit.Max {
		t.Fatalf("short name size: want=%v got=%v", AchievementFit.Max, short.AchievementSize)
	}

	in := sampleInput()
	in.AchievementName = "Distributed Systems Engineering with Go: Consensus and Replication"
	long := r.Layout(in)
	if long.AchievementSize >= AchievementFit.Max || long.AchievementSize < AchievementFit.Min {
		t.Fatalf("long name size: want in [%v,%v) got=%v", AchievementFit.Min, AchievementFit.Max, long.AchievementSize)
	}

	in.AchievementName = strings.Repeat("Extremely Thorough Curriculum ", 12)
	huge := r.Layout(in)
	if huge.AchievementSize != AchievementFit.Min {
		t.Fatalf("huge name size: want floor=%v got=%v", AchievementFit.Min, huge.AchievementSize)
	}
}

func TestLayoutTitleByType(t *testing.T) {
	r := newTestRenderer(t)
	in := sampleInput()
	if got := r.Layout(in).Title; got != "Certificate of Completion" {
		t.Fatalf("course title: got=%q", got)
	}
	in.AchievementType = types.AchievementLearningPath
	if got := r.Layout(in).Title; got != "Learning Path Certificate" {
		t.Fatalf("path title: got=%q", got)
	}
	if got := r.Layout(in).IssuedLine; got != "Issued March 14, 2025" {
		t.Fatalf("issued line: got=%q", got)
	}
}

func TestFitRule(t *testing.T) {
	rule := FitRule{Max: 72, Min: 32, Step: 4}
	// Width proportional to size: 10 px per point.
	measure := func(size float64) float64 { return size * 10 }

	tests := []struct {
		name     string
		maxWidth float64
		want     float64
	}{
		{name: "fits at max", maxWidth: 1000, want: 72},
		{name: "exact max", maxWidth: 720, want: 72},
		{name: "one step", maxWidth: 700, want: 68},
		{name: "several steps", maxWidth: 500, want: 48},
		{name: "floor", maxWidth: 10, want: 32},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := rule.Fit(tc.maxWidth, measure); got != tc.want {
				t.Fatalf("Fit: want=%v got=%v", tc.want, got)
			}
		})
	}

	calls := 0
	FitRule{Max: 40, Min: 40, Step: 4}.Fit(1, func(float64) float64 { calls++; return 100 })
	if calls != 0 {
		t.Fatalf("Fit at floor measured %d times", calls)
	}
}
