// Package canbus publishes actuator commands as CAN frames.
//
// Each command channel becomes a 16-bit little-endian signed signal, packed
// in channel order from bit 0. A frame therefore carries at most four
// channels. Physical values are scaled as raw = round(value / Factor) and
// saturate at the int16 range.
package canbus

import (
	"fmt"
	"math"
	"strings"

	"go.einride.tech/can"

	"github.com/san-kum/ctrlsim/internal/dynamo"
)

const (
	signalBits  = 16
	MaxChannels = 8 * 8 / signalBits

	// DefaultFactor gives a 0.01 resolution.
	DefaultFactor = 0.01
)

// IDs assigns a standard 11-bit identifier to each plant's command frame.
var IDs = map[string]uint32{
	"integrator":     0x100,
	"oven":           0x110,
	"tank":           0x120,
	"vertical_drone": 0x130,
	"drone2d":        0x131,
	"rocket":         0x140,
}

// IDFor returns the frame identifier for system, or 0x7FF when it has none.
func IDFor(system string) uint32 {
	if id, ok := IDs[system]; ok {
		return id
	}
	return 0x7FF
}

// Codec converts commands to frames and back.
type Codec struct {
	ID     uint32
	Factor float64
}

func NewCodec(id uint32, factor float64) Codec {
	if factor <= 0 {
		factor = DefaultFactor
	}
	return Codec{ID: id, Factor: factor}
}

func (c Codec) factor() float64 {
	if c.Factor <= 0 {
		return DefaultFactor
	}
	return c.Factor
}

func (c Codec) Encode(u dynamo.Control) (can.Frame, error) {
	if len(u) > MaxChannels {
		return can.Frame{}, fmt.Errorf("canbus: %d channels exceed frame capacity of %d", len(u), MaxChannels)
	}
	f := can.Frame{ID: c.ID, Length: uint8(len(u) * signalBits / 8)}
	for i, v := range u {
		f.Data.SetSignedBitsLittleEndian(uint8(i*signalBits), signalBits, toRaw(v, c.factor()))
	}
	if err := f.Validate(); err != nil {
		return can.Frame{}, fmt.Errorf("canbus: %w", err)
	}
	return f, nil
}

func (c Codec) Decode(f can.Frame) (dynamo.Control, error) {
	if f.ID != c.ID {
		return nil, fmt.Errorf("canbus: frame 0x%X, want 0x%X", f.ID, c.ID)
	}
	if f.Length%(signalBits/8) != 0 {
		return nil, fmt.Errorf("canbus: frame 0x%X has odd length %d", f.ID, f.Length)
	}
	n := int(f.Length) * 8 / signalBits
	u := make(dynamo.Control, n)
	for i := range u {
		raw := f.Data.SignedBitsLittleEndian(uint8(i*signalBits), signalBits)
		u[i] = float64(raw) * c.factor()
	}
	return u, nil
}

func toRaw(v, factor float64) int64 {
	raw := math.Round(v / factor)
	switch {
	case math.IsNaN(raw):
		return 0
	case raw > math.MaxInt16:
		return math.MaxInt16
	case raw < math.MinInt16:
		return math.MinInt16
	}
	return int64(raw)
}

// Sink receives every frame a Tap produces along with its simulated time.
type Sink func(t float64, f can.Frame)

// Tap is a simulator observer that encodes each step's command.
type Tap struct {
	codec  Codec
	sink   Sink
	frames int
	err    error
}

func NewTap(codec Codec, sink Sink) *Tap {
	return &Tap{codec: codec, sink: sink}
}

func (t *Tap) OnStep(x dynamo.State, u dynamo.Control, time float64) {
	if t.err != nil {
		return
	}
	f, err := t.codec.Encode(u)
	if err != nil {
		t.err = err
		return
	}
	t.frames++
	if t.sink != nil {
		t.sink(time, f)
	}
}

// Frames returns the number of frames handed to the sink.
func (t *Tap) Frames() int { return t.frames }

// Err returns the first encoding failure. The tap stops after it.
func (t *Tap) Err() error { return t.err }

// Format renders f the way candump prints it, prefixed with the simulated
// time in seconds.
func Format(iface string, t float64, f can.Frame) string {
	var b strings.Builder
	fmt.Fprintf(&b, "(%010.4f)  %s  %03X   [%d] ", t, iface, f.ID, f.Length)
	for i := 0; i < int(f.Length); i++ {
		fmt.Fprintf(&b, " %02X", f.Data[i])
	}
	return b.String()
}
