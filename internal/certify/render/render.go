// Package render composites a recipient's certificate from an event's
// template image and the two frozen field placements.  It trusts stored
// coordinates to already be in the template's native pixel space; all
// preview→native conversion happens before a placement is persisted.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	_ "image/gif"
	_ "image/jpeg"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/attendly/certserver/internal/certify/types"
)

var (
	ErrUndecodable = errors.New("template is not a decodable image")
	ErrOutOfBounds = errors.New("placement outside template bounds")
)

// codeFontSize is the fixed monospace size for the certificate code.  Only
// the name field's size is organizer-adjustable.
const codeFontSize = 28

const textDPI = 72

// Renderer draws recipient certificates.  The parsed fonts are immutable, so
// a single Renderer is safe to use from concurrent claims; per-size faces
// are created per call.
type Renderer struct {
	nameFont *opentype.Font
	codeFont *opentype.Font
}

func New() (*Renderer, error) {
	nameFont, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse name font: %w", err)
	}
	codeFont, err := opentype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse code font: %w", err)
	}
	return &Renderer{nameFont: nameFont, codeFont: codeFont}, nil
}

// Render decodes the template, overlays the recipient's name and code at
// their placements, and encodes the result as PNG with the template's pixel
// dimensions.  Pure given its inputs.
func (r *Renderer) Render(tpl types.Template, recipientName, recipientCode string) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(tpl.Image))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}

	bounds := src.Bounds()
	if err := checkBounds(tpl.Name, bounds); err != nil {
		return nil, fmt.Errorf("name %w", err)
	}
	if err := checkBounds(tpl.Code, bounds); err != nil {
		return nil, fmt.Errorf("code %w", err)
	}

	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)

	if err := r.drawCentered(dst, r.nameFont, tpl.Name.FontSize, recipientName, tpl.Name.X, tpl.Name.Y); err != nil {
		return nil, err
	}
	if err := r.drawCentered(dst, r.codeFont, codeFontSize, recipientCode, tpl.Code.X, tpl.Code.Y); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := png.Encode(&out, dst); err != nil {
		return nil, fmt.Errorf("encode certificate: %w", err)
	}
	return out.Bytes(), nil
}

// Validate runs a probe render with placeholder values so template problems
// surface when the organizer ends the event, never mid-window at claim time.
func (r *Renderer) Validate(tpl types.Template) error {
	_, err := r.Render(tpl, "Sample Recipient", types.FormatCode(1))
	return err
}

// Decode returns the template image's native pixel dimensions.
func (r *Renderer) Decode(templateImage []byte) (width, height int, err error) {
	return Decode(templateImage)
}

// Decode returns the template image's native pixel dimensions.
func Decode(templateImage []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(templateImage))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	return cfg.Width, cfg.Height, nil
}

// checkBounds rejects placements outside [0,W]x[0,H].  Reject rather than
// clamp: a misplaced field is an organizer mistake worth surfacing early.
func checkBounds(p types.Placement, bounds image.Rectangle) error {
	w := float64(bounds.Dx())
	h := float64(bounds.Dy())
	if p.X < 0 || p.X > w || p.Y < 0 || p.Y > h {
		return fmt.Errorf("%w: (%.1f,%.1f) not within [0,%.0f]x[0,%.0f]", ErrOutOfBounds, p.X, p.Y, w, h)
	}
	return nil
}

// drawCentered draws text centered on (x,y) in dst's pixel space.
func (r *Renderer) drawCentered(dst draw.Image, fnt *opentype.Font, size float64, text string, x, y float64) error {
	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    size,
		DPI:     textDPI,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return fmt.Errorf("create face: %w", err)
	}
	defer face.Close()

	advance := font.MeasureString(face, text)
	metrics := face.Metrics()

	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.Black),
		Face: face,
		Dot: fixed.Point26_6{
			X: floatToFixed(x) - advance/2,
			Y: floatToFixed(y) + (metrics.Ascent-metrics.Descent)/2,
		},
	}
	d.DrawString(text)
	return nil
}

func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}
