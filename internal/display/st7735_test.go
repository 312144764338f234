// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
)

type spiWrite struct {
	dc   gpio.Level
	data []byte
}

type fakeBus struct {
	dc     *fakePin
	writes []spiWrite
}

func (b *fakeBus) Tx(w, _ []byte) error {
	b.writes = append(b.writes, spiWrite{dc: b.dc.level, data: append([]byte(nil), w...)})
	return nil
}

type fakePin struct{ level gpio.Level }

func (p *fakePin) Out(l gpio.Level) error {
	p.level = l
	return nil
}

func newFakeST7735(t *testing.T) (*ST7735, *fakeBus, *fakePin) {
	t.Helper()
	dc, bl := &fakePin{}, &fakePin{}
	bus := &fakeBus{dc: dc}
	d := newST7735(bus, dc, bl, DefaultST7735Opts)
	d.sleep = func(time.Duration) {}
	require.NoError(t, d.init())
	return d, bus, bl
}

func commands(ws []spiWrite) []byte {
	var out []byte
	for _, w := range ws {
		if w.dc == gpio.Low {
			out = append(out, w.data...)
		}
	}
	return out
}

func TestST7735Init(t *testing.T) {
	_, bus, bl := newFakeST7735(t)

	cmds := commands(bus.writes)
	require.NotEmpty(t, cmds)
	assert.Equal(t, byte(cmdSWRESET), cmds[0])
	assert.Equal(t, byte(cmdDISPON), cmds[len(cmds)-1])
	assert.Contains(t, cmds, byte(cmdINVON))
	assert.Contains(t, cmds, byte(cmdCOLMOD))
	assert.Equal(t, gpio.High, bl.level)
}

func TestST7735Bounds(t *testing.T) {
	d, _, _ := newFakeST7735(t)
	assert.Equal(t, image.Rect(0, 0, 160, 80), d.Bounds())
}

func TestST7735DrawWindowAndChunks(t *testing.T) {
	d, bus, _ := newFakeST7735(t)
	bus.writes = nil

	require.NoError(t, d.Draw(image.NewRGBA(d.Bounds())))

	// CASET, data, RASET, data, RAMWR, then pixel chunks.
	require.GreaterOrEqual(t, len(bus.writes), 5)
	assert.Equal(t, []byte{cmdCASET}, bus.writes[0].data)
	assert.Equal(t, []byte{0, 26, 0, 105}, bus.writes[1].data)
	assert.Equal(t, []byte{cmdRASET}, bus.writes[2].data)
	assert.Equal(t, []byte{0, 1, 0, 160}, bus.writes[3].data)
	assert.Equal(t, []byte{cmdRAMWR}, bus.writes[4].data)

	total := 0
	for _, w := range bus.writes[5:] {
		assert.Equal(t, gpio.High, w.dc)
		assert.LessOrEqual(t, len(w.data), spiChunk)
		total += len(w.data)
	}
	assert.Equal(t, 80*160*2, total)
}

func TestST7735Backlight(t *testing.T) {
	d, _, bl := newFakeST7735(t)
	require.NoError(t, d.SetBacklight(false))
	assert.Equal(t, gpio.Low, bl.level)
	require.NoError(t, d.SetBacklight(true))
	assert.Equal(t, gpio.High, bl.level)
}

func TestToRGB565Rotation(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 160, 80))
	img.Set(0, 0, color.RGBA{0xFF, 0, 0, 0xFF})
	img.Set(159, 79, color.RGBA{0, 0, 0xFF, 0xFF})

	buf := toRGB565(img, 80, 160, 270)
	require.Len(t, buf, 80*160*2)

	// Logical top-left lands on native (79, 0).
	i := (0*80 + 79) * 2
	assert.Equal(t, []byte{0xF8, 0x00}, buf[i:i+2])
	// Logical bottom-right lands on native (0, 159).
	i = (159*80 + 0) * 2
	assert.Equal(t, []byte{0x00, 0x1F}, buf[i:i+2])
}

func TestToRGB565NoRotation(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(1, 0, color.RGBA{0, 0xFF, 0, 0xFF})
	assert.Equal(t, []byte{0, 0, 0x07, 0xE0}, toRGB565(img, 2, 1, 0))
}

func TestPNGPanel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	p := NewPNGPanel(path, 160, 80)
	assert.Equal(t, image.Rect(0, 0, 160, 80), p.Bounds())

	img := image.NewRGBA(p.Bounds())
	img.Set(3, 4, color.RGBA{0x10, 0x20, 0x30, 0xFF})
	require.NoError(t, p.Draw(img))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	got, err := png.Decode(f)
	require.NoError(t, err)
	r, g, b, _ := got.At(3, 4).RGBA()
	assert.Equal(t, []uint32{0x10, 0x20, 0x30}, []uint32{r >> 8, g >> 8, b >> 8})

	require.NoError(t, p.SetBacklight(false))
	assert.False(t, p.Backlight())
}
