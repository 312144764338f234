// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/relabs-tech/enviro_computer/internal/env"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// TopPos is the first pixel row of the graph area, below the text line.
const TopPos = 25

const fontSize = 20

// Renderer draws a single-metric sparkline with a text header.
type Renderer struct {
	width, height int
	face          font.Face
}

// NewRenderer returns a renderer for a width×height frame. The Go Medium
// face is used for the header; if it cannot be parsed the basic 7x13 face
// stands in.
func NewRenderer(width, height int) *Renderer {
	return &Renderer{width: width, height: height, face: loadFace()}
}

func loadFace() font.Face {
	f, err := opentype.Parse(gomedium.TTF)
	if err != nil {
		return basicfont.Face7x13
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: fontSize, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return basicfont.Face7x13
	}
	return face
}

// Message formats the header line for m given its latest value.
func Message(m env.Metric, latest *float64) string {
	if latest == nil {
		return fmt.Sprintf("%s: -- %s", m.ShortLabel(), m.Unit)
	}
	return fmt.Sprintf("%s: %.1f %s", m.ShortLabel(), *latest, m.Unit)
}

// Scale maps each non-null value to (v-min+1)/(max-min+1) over the non-null
// values. Null inputs stay null. The result lies in (0, 1].
func Scale(values []*float64) []*float64 {
	var lo, hi float64
	seen := false
	for _, v := range values {
		if v == nil {
			continue
		}
		if !seen {
			lo, hi = *v, *v
			seen = true
			continue
		}
		lo = min(lo, *v)
		hi = max(hi, *v)
	}

	out := make([]*float64, len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		s := (*v - lo + 1) / (hi - lo + 1)
		out[i] = &s
	}
	return out
}

// Hue maps a scaled value to a hue: 1 is red, 0 is blue.
func Hue(scaled float64) float64 {
	return (1 - scaled) * 0.6
}

// Render draws values (oldest first) for metric m and returns the frame and
// its header text.
func (r *Renderer) Render(m env.Metric, values []*float64) (*image.RGBA, string) {
	img := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	var latest *float64
	if len(values) > 0 {
		latest = values[len(values)-1]
	}
	msg := Message(m, latest)

	for i, s := range Scale(values) {
		if s == nil || i >= r.width {
			continue
		}
		c := HSVToRGB(Hue(*s), 1, 1)
		for y := TopPos; y < r.height; y++ {
			img.SetRGBA(i, y, c)
		}
		lineY := float64(r.height) - (TopPos + *s*float64(r.height-TopPos)) + TopPos
		y := min(max(int(lineY), TopPos), r.height-1)
		img.SetRGBA(i, y, color.RGBA{A: 0xFF})
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: r.face,
		Dot:  fixed.P(0, r.face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(msg)
	return img, msg
}

// HSVToRGB converts h, s, v in [0, 1] to an opaque RGBA colour. Channels
// are truncated, not rounded, when scaled to 0..255.
func HSVToRGB(h, s, v float64) color.RGBA {
	c := colorful.Hsv(h*360, s, v)
	return color.RGBA{uint8(c.R * 255), uint8(c.G * 255), uint8(c.B * 255), 0xFF}
}
