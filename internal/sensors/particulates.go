// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	serial "github.com/jacobsa/go-serial/serial"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"github.com/relabs-tech/enviro_computer/internal/env"
)

// PMS5003 frame layout: 0x42 0x4D, frame length (28), 13 data words, checksum.
const (
	pmsStart1      = 0x42
	pmsStart2      = 0x4D
	pmsFrameLen    = 32
	pmsBodyLen     = 28
	pmsResetPulse  = 100 * time.Millisecond
	pmsReadTimeout = 5 * time.Second
)

var (
	// ErrChecksum is returned when a PMS5003 frame fails its checksum.
	ErrChecksum = errors.New("PMS5003 checksum mismatch")
	// ErrReadTimeout is returned when no complete frame arrives in time.
	ErrReadTimeout = errors.New("PMS5003 read timeout")
)

// PMSFrame is one decoded PMS5003 data frame.
type PMSFrame struct {
	Data [13]uint16
}

// PM1 returns PM1.0 in µg/m³ (standard particle, CF=1).
func (f PMSFrame) PM1() float64 { return float64(f.Data[0]) }

// PM25 returns PM2.5 in µg/m³ (standard particle, CF=1).
func (f PMSFrame) PM25() float64 { return float64(f.Data[1]) }

// PM10 returns PM10 in µg/m³ (standard particle, CF=1).
func (f PMSFrame) PM10() float64 { return float64(f.Data[2]) }

// ParseFrame decodes a complete 32-byte frame including its start bytes.
func ParseFrame(b []byte) (PMSFrame, error) {
	if len(b) != pmsFrameLen {
		return PMSFrame{}, fmt.Errorf("PMS5003 frame: want %d bytes, got %d", pmsFrameLen, len(b))
	}
	if b[0] != pmsStart1 || b[1] != pmsStart2 {
		return PMSFrame{}, fmt.Errorf("PMS5003 frame: bad start 0x%02X 0x%02X", b[0], b[1])
	}
	if n := binary.BigEndian.Uint16(b[2:4]); n != pmsBodyLen {
		return PMSFrame{}, fmt.Errorf("PMS5003 frame: bad length %d", n)
	}

	var sum uint16
	for _, c := range b[:pmsFrameLen-2] {
		sum += uint16(c)
	}
	if want := binary.BigEndian.Uint16(b[pmsFrameLen-2:]); sum != want {
		return PMSFrame{}, fmt.Errorf("%w: got 0x%04X want 0x%04X", ErrChecksum, sum, want)
	}

	var f PMSFrame
	for i := range f.Data {
		f.Data[i] = binary.BigEndian.Uint16(b[4+2*i:])
	}
	return f, nil
}

// Particulates reads PM1/PM2.5/PM10 from a PMS5003 on a serial port.
type Particulates struct {
	port    io.Reader
	closer  io.Closer
	timeout time.Duration
	now     func() time.Time
}

// NewParticulates reads frames from port, giving up after timeout.
func NewParticulates(port io.Reader, timeout time.Duration) *Particulates {
	if timeout <= 0 {
		timeout = pmsReadTimeout
	}
	return &Particulates{port: port, timeout: timeout, now: time.Now}
}

// OpenPMS5003 enables and resets the sensor and opens its serial port.
func OpenPMS5003(portName string, baud uint, enablePin, resetPin string, timeout time.Duration) (*Particulates, error) {
	if enablePin != "" {
		pin := gpioreg.ByName(enablePin)
		if pin == nil {
			return nil, fmt.Errorf("PMS5003 enable pin %q not found", enablePin)
		}
		if err := pin.Out(gpio.High); err != nil {
			return nil, fmt.Errorf("PMS5003 enable: %w", err)
		}
	}
	if resetPin != "" {
		pin := gpioreg.ByName(resetPin)
		if pin == nil {
			return nil, fmt.Errorf("PMS5003 reset pin %q not found", resetPin)
		}
		if err := pin.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("PMS5003 reset: %w", err)
		}
		time.Sleep(pmsResetPulse)
		if err := pin.Out(gpio.High); err != nil {
			return nil, fmt.Errorf("PMS5003 reset: %w", err)
		}
	}

	opts := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              baud,
		DataBits:              8,
		StopBits:              1,
		ParityMode:            serial.PARITY_NONE,
		MinimumReadSize:       0,
		InterCharacterTimeout: 100, // ms; reads return empty instead of blocking
	}
	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("PMS5003 serial open (%s): %w", portName, err)
	}

	p := NewParticulates(port, timeout)
	p.closer = port
	return p, nil
}

func (p *Particulates) Name() string { return "particulates" }

func (p *Particulates) Keys() []string {
	return []string{env.KeyPM1, env.KeyPM25, env.KeyPM10}
}

func (p *Particulates) Read(ctx context.Context) (map[string]float64, error) {
	f, err := p.readFrame(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]float64{
		env.KeyPM1:  f.PM1(),
		env.KeyPM25: f.PM25(),
		env.KeyPM10: f.PM10(),
	}, nil
}

// readFrame scans for the start bytes and reads one frame before the deadline.
func (p *Particulates) readFrame(ctx context.Context) (PMSFrame, error) {
	deadline := p.now().Add(p.timeout)
	frame := make([]byte, 0, pmsFrameLen)
	one := make([]byte, 1)

	for {
		if err := ctx.Err(); err != nil {
			return PMSFrame{}, err
		}
		if p.now().After(deadline) {
			return PMSFrame{}, ErrReadTimeout
		}

		n, err := p.port.Read(one)
		if err != nil && !errors.Is(err, io.EOF) {
			return PMSFrame{}, fmt.Errorf("PMS5003 read: %w", err)
		}
		if n == 0 {
			continue
		}

		b := one[0]
		switch len(frame) {
		case 0:
			if b == pmsStart1 {
				frame = append(frame, b)
			}
		case 1:
			switch b {
			case pmsStart2:
				frame = append(frame, b)
			case pmsStart1:
				// still a valid first byte
			default:
				frame = frame[:0]
			}
		default:
			frame = append(frame, b)
			if len(frame) == pmsFrameLen {
				return ParseFrame(frame)
			}
		}
	}
}

// Close closes the serial port.
func (p *Particulates) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}
