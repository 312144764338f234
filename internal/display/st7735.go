// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"fmt"
	"image"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

// ST7735 commands.
const (
	cmdSWRESET = 0x01
	cmdSLPOUT  = 0x11
	cmdNORON   = 0x13
	cmdINVOFF  = 0x20
	cmdINVON   = 0x21
	cmdDISPON  = 0x29
	cmdCASET   = 0x2A
	cmdRASET   = 0x2B
	cmdRAMWR   = 0x2C
	cmdMADCTL  = 0x36
	cmdCOLMOD  = 0x3A
	cmdFRMCTR1 = 0xB1
	cmdFRMCTR2 = 0xB2
	cmdFRMCTR3 = 0xB3
	cmdINVCTR  = 0xB4
	cmdPWCTR1  = 0xC0
	cmdPWCTR2  = 0xC1
	cmdPWCTR4  = 0xC3
	cmdPWCTR5  = 0xC4
	cmdVMCTR1  = 0xC5
	cmdGMCTRP1 = 0xE0
	cmdGMCTRN1 = 0xE1

	st7735Cols = 132
	st7735Rows = 162

	spiChunk = 4096
)

// ST7735Opts describes the wiring of an ST7735 panel.
type ST7735Opts struct {
	Port         string // SPI port name, e.g. "SPI0.1"
	DCPin        string
	BacklightPin string
	SpeedHz      int64
	Width        int // native width in pixels
	Height       int // native height in pixels
	Rotation     int // 0, 90, 180 or 270 (counter-clockwise)
	Invert       bool
}

// DefaultST7735Opts matches the 0.96" 80×160 panel on the Enviro+ board.
var DefaultST7735Opts = ST7735Opts{
	Port:         "SPI0.1",
	DCPin:        "GPIO9",
	BacklightPin: "GPIO12",
	SpeedHz:      10_000_000,
	Width:        80,
	Height:       160,
	Rotation:     270,
	Invert:       true,
}

// txConn is the SPI half-duplex write path.
type txConn interface {
	Tx(w, r []byte) error
}

// levelOut is a GPIO output.
type levelOut interface {
	Out(l gpio.Level) error
}

// ST7735 drives an ST7735 TFT over SPI.
type ST7735 struct {
	conn      txConn
	dc        levelOut
	backlight levelOut
	closer    func() error
	opts      ST7735Opts
	offLeft   int
	offTop    int
	sleep     func(time.Duration)
}

// OpenST7735 opens the SPI port and GPIO pins and initializes the panel.
func OpenST7735(opts ST7735Opts) (*ST7735, error) {
	port, err := spireg.Open(opts.Port)
	if err != nil {
		return nil, fmt.Errorf("ST7735 SPI open (%s): %w", opts.Port, err)
	}
	conn, err := port.Connect(physic.Frequency(opts.SpeedHz)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("ST7735 SPI connect: %w", err)
	}

	dc := gpioreg.ByName(opts.DCPin)
	if dc == nil {
		port.Close()
		return nil, fmt.Errorf("ST7735 DC pin %q not found", opts.DCPin)
	}
	var bl levelOut
	if opts.BacklightPin != "" {
		p := gpioreg.ByName(opts.BacklightPin)
		if p == nil {
			port.Close()
			return nil, fmt.Errorf("ST7735 backlight pin %q not found", opts.BacklightPin)
		}
		bl = p
	}

	d := newST7735(conn, dc, bl, opts)
	d.closer = port.Close
	if err := d.init(); err != nil {
		port.Close()
		return nil, err
	}
	return d, nil
}

func newST7735(conn txConn, dc, backlight levelOut, opts ST7735Opts) *ST7735 {
	return &ST7735{
		conn:      conn,
		dc:        dc,
		backlight: backlight,
		opts:      opts,
		offLeft:   (st7735Cols - opts.Width) / 2,
		offTop:    (st7735Rows - opts.Height) / 2,
		sleep:     time.Sleep,
	}
}

func (d *ST7735) init() error {
	type step struct {
		cmd   byte
		data  []byte
		delay time.Duration
	}
	inv := byte(cmdINVOFF)
	if d.opts.Invert {
		inv = cmdINVON
	}
	steps := []step{
		{cmd: cmdSWRESET, delay: 150 * time.Millisecond},
		{cmd: cmdSLPOUT, delay: 500 * time.Millisecond},
		{cmd: cmdFRMCTR1, data: []byte{0x01, 0x2C, 0x2D}},
		{cmd: cmdFRMCTR2, data: []byte{0x01, 0x2C, 0x2D}},
		{cmd: cmdFRMCTR3, data: []byte{0x01, 0x2C, 0x2D, 0x01, 0x2C, 0x2D}},
		{cmd: cmdINVCTR, data: []byte{0x07}},
		{cmd: cmdPWCTR1, data: []byte{0xA2, 0x02, 0x84}},
		{cmd: cmdPWCTR2, data: []byte{0x0A, 0x00}},
		{cmd: cmdPWCTR4, data: []byte{0x8A, 0x2A}},
		{cmd: cmdPWCTR5, data: []byte{0x8A, 0xEE}},
		{cmd: cmdVMCTR1, data: []byte{0x0E}},
		{cmd: inv},
		{cmd: cmdMADCTL, data: []byte{0xC8}},
		{cmd: cmdCOLMOD, data: []byte{0x05}}, // 16-bit colour
		{cmd: cmdGMCTRP1, data: []byte{0x02, 0x1C, 0x07, 0x12, 0x37, 0x32, 0x29, 0x2D, 0x29, 0x25, 0x2B, 0x39, 0x00, 0x01, 0x03, 0x10}},
		{cmd: cmdGMCTRN1, data: []byte{0x03, 0x1D, 0x07, 0x06, 0x2E, 0x2C, 0x29, 0x2D, 0x2E, 0x2E, 0x37, 0x3F, 0x00, 0x00, 0x02, 0x10}},
		{cmd: cmdNORON, delay: 10 * time.Millisecond},
		{cmd: cmdDISPON, delay: 100 * time.Millisecond},
	}
	for _, s := range steps {
		if err := d.command(s.cmd, s.data...); err != nil {
			return fmt.Errorf("ST7735 init 0x%02X: %w", s.cmd, err)
		}
		if s.delay > 0 {
			d.sleep(s.delay)
		}
	}
	return d.SetBacklight(true)
}

// Bounds returns the logical drawing area after rotation.
func (d *ST7735) Bounds() image.Rectangle {
	if d.opts.Rotation == 90 || d.opts.Rotation == 270 {
		return image.Rect(0, 0, d.opts.Height, d.opts.Width)
	}
	return image.Rect(0, 0, d.opts.Width, d.opts.Height)
}

// Draw rotates img to the native orientation and writes it to panel RAM.
func (d *ST7735) Draw(img image.Image) error {
	buf := toRGB565(img, d.opts.Width, d.opts.Height, d.opts.Rotation)

	x0, x1 := d.offLeft, d.offLeft+d.opts.Width-1
	y0, y1 := d.offTop, d.offTop+d.opts.Height-1
	if err := d.command(cmdCASET, 0, byte(x0), 0, byte(x1)); err != nil {
		return fmt.Errorf("ST7735 window: %w", err)
	}
	if err := d.command(cmdRASET, 0, byte(y0), 0, byte(y1)); err != nil {
		return fmt.Errorf("ST7735 window: %w", err)
	}
	if err := d.command(cmdRAMWR); err != nil {
		return fmt.Errorf("ST7735 ram write: %w", err)
	}
	return d.data(buf)
}

// SetBacklight drives the backlight GPIO.
func (d *ST7735) SetBacklight(on bool) error {
	if d.backlight == nil {
		return nil
	}
	return d.backlight.Out(gpio.Level(on))
}

// Halt blanks the backlight and releases the SPI port.
func (d *ST7735) Halt() error {
	if err := d.SetBacklight(false); err != nil {
		return err
	}
	if d.closer != nil {
		return d.closer()
	}
	return nil
}

func (d *ST7735) command(cmd byte, data ...byte) error {
	if err := d.dc.Out(gpio.Low); err != nil {
		return err
	}
	if err := d.conn.Tx([]byte{cmd}, nil); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return d.data(data)
}

func (d *ST7735) data(b []byte) error {
	if err := d.dc.Out(gpio.High); err != nil {
		return err
	}
	for len(b) > 0 {
		n := min(len(b), spiChunk)
		if err := d.conn.Tx(b[:n], nil); err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

// toRGB565 converts a logical frame to native-orientation RGB565 bytes
// (big-endian). Rotation is counter-clockwise, like the panel's mounting.
func toRGB565(img image.Image, nativeW, nativeH, rotation int) []byte {
	b := img.Bounds()
	out := make([]byte, nativeW*nativeH*2)
	for ny := 0; ny < nativeH; ny++ {
		for nx := 0; nx < nativeW; nx++ {
			var lx, ly int
			switch rotation {
			case 90:
				lx, ly = nativeH-1-ny, nx
			case 180:
				lx, ly = nativeW-1-nx, nativeH-1-ny
			case 270:
				lx, ly = ny, nativeW-1-nx
			default:
				lx, ly = nx, ny
			}
			r, g, bl, _ := img.At(b.Min.X+lx, b.Min.Y+ly).RGBA()
			c := uint16(r>>11)<<11 | uint16(g>>10)<<5 | uint16(bl>>11)
			i := (ny*nativeW + nx) * 2
			out[i] = byte(c >> 8)
			out[i+1] = byte(c)
		}
	}
	return out
}
