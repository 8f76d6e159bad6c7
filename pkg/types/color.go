package types

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var ErrInvalidColor = errors.New("invalid color")

// Color is a hex color, "#RRGGBB" or "#RRGGBBAA". The empty string means unset.
type Color string

type RGBA struct {
	R, G, B uint8
	A       float64
}

func (c Color) IsZero() bool {
	return c == ""
}

// Parse decodes the color. Colors without an alpha component are opaque.
func (c Color) Parse() (RGBA, error) {
	s := strings.TrimPrefix(strings.TrimSpace(string(c)), "#")
	if len(s) != 6 && len(s) != 8 {
		return RGBA{}, errors.Wrapf(ErrInvalidColor, "%q", string(c))
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGBA{}, errors.Wrapf(ErrInvalidColor, "%q", string(c))
	}

	if len(s) == 6 {
		return RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 1}, nil
	}
	return RGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: float64(uint8(v)) / 255,
	}, nil
}

// FFmpeg renders the color in ffmpeg's 0xRRGGBB@alpha syntax, with the given
// opacity multiplied into the color's own alpha.
func (c Color) FFmpeg(opacity float64) (string, error) {
	rgba, err := c.Parse()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("0x%02X%02X%02X@%.3f", rgba.R, rgba.G, rgba.B, rgba.A*opacity), nil
}
