// Package render lays out certificate artifacts. Rendering is a pure function of its
// input: no network, no database, and identical input yields identical bytes.
package render

import (
	"bytes"
	"fmt"
	"image/color"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	types "github.com/yungbote/neurobridge-credentials/internal/domain"
)

const (
	CanvasWidth  = 1600
	CanvasHeight = 1130

	// Text never extends past this horizontal margin on either side.
	textMargin = 170

	ContentType = "image/png"
)

// Achievement-name sizing: start large, step down, never below the floor.
var (
	AchievementFit = FitRule{Max: 72, Min: 32, Step: 4}
	RecipientFit   = FitRule{Max: 64, Min: 30, Step: 4}
)

var (
	colorPaper  = color.RGBA{R: 0xfb, G: 0xf8, B: 0xf1, A: 0xff}
	colorInk    = color.RGBA{R: 0x1d, G: 0x25, B: 0x3b, A: 0xff}
	colorMuted  = color.RGBA{R: 0x5b, G: 0x63, B: 0x77, A: 0xff}
	colorAccent = color.RGBA{R: 0xb8, G: 0x92, B: 0x3a, A: 0xff}
)

type Input struct {
	CredentialID    string
	RecipientName   string
	AchievementName string
	AchievementType types.AchievementType
	IssuedAt        time.Time
	VerifyURL       string
}

type Branding struct {
	IssuerName    string `yaml:"issuer_name"`
	SignatoryName string `yaml:"signatory_name"`
	SignatoryRole string `yaml:"signatory_role"`
}

func DefaultBranding() Branding {
	return Branding{
		IssuerName:    "Neurobridge Academy",
		SignatoryName: "Program Director",
		SignatoryRole: "Neurobridge Academy",
	}
}

// Layout is the set of sizing decisions for one artifact.
type Layout struct {
	Title           string
	RecipientSize   float64
	AchievementSize float64
	IssuedLine      string
}

type Renderer struct {
	regular  *truetype.Font
	bold     *truetype.Font
	branding Branding
}

func NewRenderer(branding Branding) (*Renderer, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse regular font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bold font: %w", err)
	}
	def := DefaultBranding()
	if strings.TrimSpace(branding.IssuerName) == "" {
		branding.IssuerName = def.IssuerName
	}
	if strings.TrimSpace(branding.SignatoryName) == "" {
		branding.SignatoryName = def.SignatoryName
	}
	if strings.TrimSpace(branding.SignatoryRole) == "" {
		branding.SignatoryRole = branding.IssuerName
	}
	return &Renderer{regular: regular, bold: bold, branding: branding}, nil
}

// ContentWidth is the horizontal space available to any text line.
func ContentWidth() float64 {
	return float64(CanvasWidth - 2*textMargin)
}

func (r *Renderer) Layout(in Input) Layout {
	return Layout{
		Title:           titleFor(in.AchievementType),
		RecipientSize:   r.fit(r.bold, displayOr(in.RecipientName, "Learner"), RecipientFit),
		AchievementSize: r.fit(r.bold, displayOr(in.AchievementName, "Untitled"), AchievementFit),
		IssuedLine:      "Issued " + in.IssuedAt.UTC().Format("January 2, 2006"),
	}
}

// Render returns the PNG bytes of the certificate.
func (r *Renderer) Render(in Input) ([]byte, error) {
	if strings.TrimSpace(in.CredentialID) == "" {
		return nil, fmt.Errorf("credential id is required")
	}
	if in.IssuedAt.IsZero() {
		return nil, fmt.Errorf("issued at is required")
	}
	lay := r.Layout(in)
	recipient := displayOr(in.RecipientName, "Learner")
	achievement := displayOr(in.AchievementName, "Untitled")

	dc := gg.NewContext(CanvasWidth, CanvasHeight)
	cx := float64(CanvasWidth) / 2

	dc.SetColor(colorPaper)
	dc.DrawRectangle(0, 0, CanvasWidth, CanvasHeight)
	dc.Fill()
	drawFrame(dc)

	faces := newFaceSet(r)
	defer faces.close()

	dc.SetColor(colorAccent)
	dc.SetFontFace(faces.get(r.bold, 22))
	dc.DrawStringAnchored(strings.ToUpper(r.branding.IssuerName), cx, 160, 0.5, 0.5)

	dc.SetColor(colorInk)
	dc.SetFontFace(faces.get(r.bold, 46))
	dc.DrawStringAnchored(lay.Title, cx, 235, 0.5, 0.5)

	dc.SetColor(colorMuted)
	dc.SetFontFace(faces.get(r.regular, 28))
	dc.DrawStringAnchored("This certifies that", cx, 335, 0.5, 0.5)

	dc.SetColor(colorInk)
	dc.SetFontFace(faces.get(r.bold, lay.RecipientSize))
	dc.DrawStringAnchored(recipient, cx, 425, 0.5, 0.5)

	dc.SetColor(colorAccent)
	dc.SetLineWidth(2)
	dc.DrawLine(cx-260, 475, cx+260, 475)
	dc.Stroke()

	dc.SetColor(colorMuted)
	dc.SetFontFace(faces.get(r.regular, 28))
	dc.DrawStringAnchored(completedPhrase(in.AchievementType), cx, 535, 0.5, 0.5)

	dc.SetColor(colorInk)
	dc.SetFontFace(faces.get(r.bold, lay.AchievementSize))
	dc.DrawStringAnchored(achievement, cx, 630, 0.5, 0.5)

	dc.SetColor(colorMuted)
	dc.SetFontFace(faces.get(r.regular, 26))
	dc.DrawStringAnchored(lay.IssuedLine, cx, 740, 0.5, 0.5)

	// Signature block.
	dc.SetColor(colorInk)
	dc.SetLineWidth(1.5)
	dc.DrawLine(cx-200, 880, cx+200, 880)
	dc.Stroke()
	dc.SetFontFace(faces.get(r.bold, 24))
	dc.DrawStringAnchored(r.branding.SignatoryName, cx, 912, 0.5, 0.5)
	dc.SetColor(colorMuted)
	dc.SetFontFace(faces.get(r.regular, 20))
	dc.DrawStringAnchored(r.branding.SignatoryRole, cx, 942, 0.5, 0.5)

	dc.SetFontFace(faces.get(r.regular, 20))
	dc.DrawStringAnchored("Credential ID: "+in.CredentialID, cx, 1010, 0.5, 0.5)
	if v := strings.TrimSpace(in.VerifyURL); v != "" {
		dc.SetFontFace(faces.get(r.regular, 18))
		dc.DrawStringAnchored("Verify at "+v, cx, 1040, 0.5, 0.5)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) fit(f *truetype.Font, text string, rule FitRule) float64 {
	return rule.Fit(ContentWidth(), func(size float64) float64 {
		face := newFace(f, size)
		defer face.Close()
		return float64(font.MeasureString(face, text)) / 64
	})
}

func drawFrame(dc *gg.Context) {
	dc.SetColor(colorInk)
	dc.SetLineWidth(10)
	dc.DrawRectangle(40, 40, CanvasWidth-80, CanvasHeight-80)
	dc.Stroke()

	dc.SetColor(colorAccent)
	dc.SetLineWidth(3)
	dc.DrawRectangle(64, 64, CanvasWidth-128, CanvasHeight-128)
	dc.Stroke()

	for _, p := range [][2]float64{
		{64, 64},
		{CanvasWidth - 64, 64},
		{64, CanvasHeight - 64},
		{CanvasWidth - 64, CanvasHeight - 64},
	} {
		dc.DrawCircle(p[0], p[1], 10)
		dc.Fill()
	}
}

func titleFor(t types.AchievementType) string {
	if t == types.AchievementLearningPath {
		return "Learning Path Certificate"
	}
	return "Certificate of Completion"
}

func completedPhrase(t types.AchievementType) string {
	if t == types.AchievementLearningPath {
		return "has completed every course in the learning path"
	}
	return "has successfully completed the course"
}

func displayOr(s, fallback string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return fallback
	}
	return s
}

func newFace(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}

// faceSet reuses faces within a single render. truetype faces are not safe for
// concurrent use, so a set never outlives its Render call.
type faceSet struct {
	r     *Renderer
	faces map[faceKey]font.Face
}

type faceKey struct {
	bold bool
	size float64
}

func newFaceSet(r *Renderer) *faceSet {
	return &faceSet{r: r, faces: map[faceKey]font.Face{}}
}

func (s *faceSet) get(f *truetype.Font, size float64) font.Face {
	k := faceKey{bold: f == s.r.bold, size: size}
	if face, ok := s.faces[k]; ok {
		return face
	}
	face := newFace(f, size)
	s.faces[k] = face
	return face
}

func (s *faceSet) close() {
	for _, f := range s.faces {
		_ = f.Close()
	}
}
