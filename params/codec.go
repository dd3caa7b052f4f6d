package params

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Field offsets within the encoded block. The layout is little-endian
// and matches both the WGSL uniform layout of the Uniforms struct and
// std140, which agree for this shape: vec2<f32> aligns to 8 and the
// trailing vec2 pads the struct to a 16-byte multiple.
const (
	OffScale           = 0
	OffEscapeThreshold = 4
	OffCentre          = 8
	OffIterations      = 16
	OffFlags           = 20
	OffInitialValue    = 24

	// EncodedSize is the byte length of an encoded block.
	EncodedSize = 32
)

// Encode serialises the block for upload or export.
func (b Block) Encode() ([]byte, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	buf := make([]byte, EncodedSize)
	le := binary.LittleEndian
	le.PutUint32(buf[OffScale:], math.Float32bits(b.Scale))
	le.PutUint32(buf[OffEscapeThreshold:], math.Float32bits(b.EscapeThreshold))
	le.PutUint32(buf[OffCentre:], math.Float32bits(b.Centre[0]))
	le.PutUint32(buf[OffCentre+4:], math.Float32bits(b.Centre[1]))
	le.PutUint32(buf[OffIterations:], uint32(b.Iterations))
	le.PutUint32(buf[OffFlags:], b.Flags())
	le.PutUint32(buf[OffInitialValue:], math.Float32bits(b.InitialValue[0]))
	le.PutUint32(buf[OffInitialValue+4:], math.Float32bits(b.InitialValue[1]))
	return buf, nil
}

// Decode parses an encoded block and checks it describes a renderable
// frame. Flag words with reserved or conflicting bits are rejected.
func Decode(data []byte) (Block, error) {
	if len(data) != EncodedSize {
		return Block{}, fmt.Errorf("params: encoded block is %d bytes, want %d", len(data), EncodedSize)
	}
	le := binary.LittleEndian
	mode, smooth, black, err := UnpackFlags(le.Uint32(data[OffFlags:]))
	if err != nil {
		return Block{}, err
	}
	b := Block{
		Scale:           math.Float32frombits(le.Uint32(data[OffScale:])),
		EscapeThreshold: math.Float32frombits(le.Uint32(data[OffEscapeThreshold:])),
		Centre: [2]float32{
			math.Float32frombits(le.Uint32(data[OffCentre:])),
			math.Float32frombits(le.Uint32(data[OffCentre+4:])),
		},
		Iterations:    int32(le.Uint32(data[OffIterations:])),
		Mode:          mode,
		Smooth:        smooth,
		InteriorBlack: black,
		InitialValue: [2]float32{
			math.Float32frombits(le.Uint32(data[OffInitialValue:])),
			math.Float32frombits(le.Uint32(data[OffInitialValue+4:])),
		},
	}
	if err := b.Validate(); err != nil {
		return Block{}, err
	}
	return b, nil
}
