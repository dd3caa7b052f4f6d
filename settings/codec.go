package settings

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/gogpu/fractal/params"
)

// maxExprLen bounds a single formula in the wire body. Corrupt length
// prefixes must not drive allocation.
const maxExprLen = 1 << 16

// Export serialises the settings as "<version>;<base64 body>".
func (s Settings) Export() (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}
	var body bytes.Buffer
	le := binary.LittleEndian

	var fixed [36]byte
	le.PutUint64(fixed[0:], math.Float64bits(s.Scale))
	le.PutUint64(fixed[8:], math.Float64bits(s.Centre[0]))
	le.PutUint64(fixed[16:], math.Float64bits(s.Centre[1]))
	le.PutUint32(fixed[24:], math.Float32bits(s.EscapeThreshold))
	le.PutUint32(fixed[28:], uint32(s.Iterations))
	le.PutUint32(fixed[32:], params.PackFlags(s.Mode, s.Smooth, s.InteriorBlack))
	body.Write(fixed[:])

	var iv [8]byte
	le.PutUint32(iv[0:], math.Float32bits(s.InitialValue[0]))
	le.PutUint32(iv[4:], math.Float32bits(s.InitialValue[1]))
	body.Write(iv[:])

	if err := writeString(&body, s.IterationExpr); err != nil {
		return "", err
	}
	if err := writeString(&body, s.ColourExpr); err != nil {
		return "", err
	}
	if err := writeString(&body, s.AdditionalWGSL); err != nil {
		return "", err
	}

	return versionCurrent + ";" + base64.StdEncoding.EncodeToString(body.Bytes()), nil
}

// Import parses a string produced by Export, current or previous
// version. The input may also be a URL carrying the string as its
// query, as produced by share links.
func Import(raw string) (Settings, error) {
	raw = strings.TrimSpace(raw)
	if u, err := url.Parse(raw); err == nil && u.RawQuery != "" {
		raw = u.RawQuery
	}

	version, b64, ok := strings.Cut(raw, ";")
	if !ok {
		return Settings{}, ErrInvalidFraming
	}
	withColour := false
	switch version {
	case versionCurrent:
		withColour = true
	case versionPrevious:
	default:
		return Settings{}, fmt.Errorf("%w %q", ErrVersionMismatch, version)
	}

	body, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return Settings{}, fmt.Errorf("%w: %s", ErrInvalidBase64, err)
	}
	s, err := decodeBody(body, withColour)
	if err != nil {
		return Settings{}, err
	}
	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("%w: %s", ErrBodyCorrupt, err)
	}
	return s, nil
}

func decodeBody(body []byte, withColour bool) (Settings, error) {
	r := reader{data: body}
	le := binary.LittleEndian

	var s Settings
	fixed, err := r.take(44)
	if err != nil {
		return Settings{}, err
	}
	s.Scale = math.Float64frombits(le.Uint64(fixed[0:]))
	s.Centre[0] = math.Float64frombits(le.Uint64(fixed[8:]))
	s.Centre[1] = math.Float64frombits(le.Uint64(fixed[16:]))
	s.EscapeThreshold = math.Float32frombits(le.Uint32(fixed[24:]))
	s.Iterations = int32(le.Uint32(fixed[28:]))
	s.Mode, s.Smooth, s.InteriorBlack, err = params.UnpackFlags(le.Uint32(fixed[32:]))
	if err != nil {
		return Settings{}, fmt.Errorf("%w: %s", ErrBodyCorrupt, err)
	}
	s.InitialValue[0] = math.Float32frombits(le.Uint32(fixed[36:]))
	s.InitialValue[1] = math.Float32frombits(le.Uint32(fixed[40:]))

	if s.IterationExpr, err = r.takeString(); err != nil {
		return Settings{}, err
	}
	if withColour {
		if s.ColourExpr, err = r.takeString(); err != nil {
			return Settings{}, err
		}
		if s.AdditionalWGSL, err = r.takeString(); err != nil {
			return Settings{}, err
		}
	} else {
		// Saved before colouring and helper code were configurable.
		s.ColourExpr = DefaultColourExpr
	}

	if r.remaining() != 0 {
		return Settings{}, fmt.Errorf("%w: %d trailing bytes", ErrBodyCorrupt, r.remaining())
	}
	return s, nil
}

func writeString(buf *bytes.Buffer, s string) error {
	if len(s) > maxExprLen {
		return fmt.Errorf("settings: expression of %d bytes exceeds the %d byte limit", len(s), maxExprLen)
	}
	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], uint32(len(s)))
	buf.Write(n[:])
	buf.WriteString(s)
	return nil
}

// reader is a bounds-checked cursor over the wire body.
type reader struct {
	data []byte
	off  int
}

func (r *reader) remaining() int { return len(r.data) - r.off }

func (r *reader) take(n int) ([]byte, error) {
	if r.remaining() < n {
		return nil, fmt.Errorf("%w: truncated at byte %d", ErrBodyCorrupt, r.off)
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) takeString() (string, error) {
	lb, err := r.take(4)
	if err != nil {
		return "", err
	}
	n := binary.LittleEndian.Uint32(lb)
	if n > maxExprLen {
		return "", fmt.Errorf("%w: string length %d exceeds limit", ErrBodyCorrupt, n)
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
