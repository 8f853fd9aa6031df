// Package paper maps named paper formats to the three coordinate spaces the
// engine works in: the design space templates are authored in (72dpi pixels),
// the scaled preview space the designer canvas draws in, and the physical
// millimeter space the PDF renderer emits in.
package paper

import (
	"errors"
	"fmt"
	"strings"
)

// Format identifies a supported paper format.
type Format string

// Supported formats. The thermal formats are continuous rolls cut to length.
const (
	A4        Format = "A4"
	A5        Format = "A5"
	Thermal80 Format = "THERMAL_80"
	Thermal58 Format = "THERMAL_58"
)

// Orientation selects portrait or landscape page layout.
type Orientation string

const (
	Portrait  Orientation = "PORTRAIT"
	Landscape Orientation = "LANDSCAPE"
)

// PreviewScale is the fixed factor applied uniformly to design-space x, y and
// font size when drawing the designer preview.
const PreviewScale = 0.75

// ErrUnknownFormat is returned when a format name is not in the registry.
var ErrUnknownFormat = errors.New("paper: unknown format")

// Dimensions describes one format in every coordinate space, after any
// orientation swap has been applied.
type Dimensions struct {
	DesignW  float64 // design space, 72dpi pixels
	DesignH  float64
	PreviewW float64 // design * PreviewScale
	PreviewH float64
	WidthMm  float64 // physical print size
	HeightMm float64
}

type entry struct {
	pxW, pxH float64
	mmW, mmH float64
}

var registry = map[Format]entry{
	A4:        {pxW: 595, pxH: 842, mmW: 210, mmH: 297},
	A5:        {pxW: 420, pxH: 595, mmW: 148, mmH: 210},
	Thermal80: {pxW: 302, pxH: 1000, mmW: 80, mmH: 264},
	Thermal58: {pxW: 219, pxH: 1000, mmW: 58, mmH: 264},
}

// Size returns the dimensions of a format in the requested orientation.
// Landscape swaps the width/height of every pair.
func Size(f Format, o Orientation) (Dimensions, error) {
	e, ok := registry[f]
	if !ok {
		return Dimensions{}, fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
	d := Dimensions{
		DesignW: e.pxW, DesignH: e.pxH,
		PreviewW: e.pxW * PreviewScale, PreviewH: e.pxH * PreviewScale,
		WidthMm: e.mmW, HeightMm: e.mmH,
	}
	if o == Landscape {
		d.DesignW, d.DesignH = d.DesignH, d.DesignW
		d.PreviewW, d.PreviewH = d.PreviewH, d.PreviewW
		d.WidthMm, d.HeightMm = d.HeightMm, d.WidthMm
	}
	return d, nil
}

// Parse resolves a format name case-insensitively, accepting a few common
// spellings for the thermal roll widths.
func Parse(s string) (Format, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A4":
		return A4, nil
	case "A5":
		return A5, nil
	case "THERMAL_80", "THERMAL-80", "THERMAL80", "80MM":
		return Thermal80, nil
	case "THERMAL_58", "THERMAL-58", "THERMAL58", "58MM":
		return Thermal58, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Formats lists every registered format in a stable order.
func Formats() []Format {
	return []Format{A4, A5, Thermal80, Thermal58}
}

// ToPreview converts a design-space value (position or font size) to the
// preview space.
func ToPreview(v float64) float64 {
	return v * PreviewScale
}

// MmPerDesignX returns the factor converting a design-space x coordinate to
// millimeters for this page. Vertical conversion uses MmPerDesignY; the two
// differ only by rounding of the physical sizes.
func (d Dimensions) MmPerDesignX() float64 {
	return d.WidthMm / d.DesignW
}

// MmPerDesignY returns the design-to-millimeter factor for y coordinates.
func (d Dimensions) MmPerDesignY() float64 {
	return d.HeightMm / d.DesignH
}
