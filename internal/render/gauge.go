package render

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/fogleman/gg"
	"github.com/maturity-diagnostic/internal/domain"
)

// Gauge image size in pixels.
const (
	gaugeWidth  = 360
	gaugeHeight = 200
)

// ScoreColor is the hex colour used for a score: red up to 2, amber at 3,
// green above.
func ScoreColor(score int) string {
	switch {
	case score <= 2:
		return "#dc2626"
	case score == 3:
		return "#ca8a04"
	default:
		return "#16a34a"
	}
}

// hexRGB parses "#rrggbb".
func hexRGB(hex string) (r, g, b int) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}

// DrawGauge renders a half-circle gauge filled to score/5 as a PNG.
func DrawGauge(score int) ([]byte, error) {
	if score < 1 || score > 5 {
		return nil, fmt.Errorf("%w: gauge score %d out of range", domain.ErrRender, score)
	}

	dc := gg.NewContext(gaugeWidth, gaugeHeight)
	dc.SetColor(color.White)
	dc.Clear()

	cx := float64(gaugeWidth) / 2
	cy := float64(gaugeHeight) - 20
	radius := float64(gaugeWidth)/2 - 30

	dc.SetLineWidth(28)
	dc.SetLineCap(gg.LineCapRound)

	dc.SetRGB255(229, 231, 235)
	dc.DrawArc(cx, cy, radius, math.Pi, 2*math.Pi)
	dc.Stroke()

	r, g, b := hexRGB(ScoreColor(score))
	dc.SetRGB255(r, g, b)
	end := math.Pi + math.Pi*float64(score)/5
	dc.DrawArc(cx, cy, radius, math.Pi, end)
	dc.Stroke()

	// tick marks between the five segments
	dc.SetLineWidth(3)
	dc.SetColor(color.White)
	for i := 1; i < 5; i++ {
		angle := math.Pi + math.Pi*float64(i)/5
		inner, outer := radius-16, radius+16
		dc.DrawLine(cx+inner*math.Cos(angle), cy+inner*math.Sin(angle),
			cx+outer*math.Cos(angle), cy+outer*math.Sin(angle))
		dc.Stroke()
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("%w: encode gauge: %v", domain.ErrRender, err)
	}
	return buf.Bytes(), nil
}
