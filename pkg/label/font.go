// Package label draws fragment sequence numbers onto images.
package label

import (
	"fmt"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

// FontSpec names the preferred label font.
type FontSpec struct {
	Path string
	Size float64
}

// Font is the outcome of resolving a FontSpec: either the parsed preferred
// font or the built-in fallback face.
type Font struct {
	otf    *opentype.Font
	size   float64
	reason error
}

// Resolve loads spec.Path at spec.Size points. Any failure yields the
// built-in basicfont face instead; the cause is kept in Reason.
func Resolve(spec FontSpec) Font {
	data, err := os.ReadFile(spec.Path)
	if err != nil {
		return Font{reason: fmt.Errorf("read font %s: %w", spec.Path, err)}
	}
	otf, err := opentype.Parse(data)
	if err != nil {
		return Font{reason: fmt.Errorf("parse font %s: %w", spec.Path, err)}
	}
	if spec.Size <= 0 {
		return Font{reason: fmt.Errorf("font size %v must be positive", spec.Size)}
	}
	// probe once so an unusable face falls back here rather than per fragment
	face, err := opentype.NewFace(otf, &opentype.FaceOptions{Size: spec.Size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return Font{reason: fmt.Errorf("font face %s: %w", spec.Path, err)}
	}
	face.Close()
	return Font{otf: otf, size: spec.Size}
}

// Fallback reports whether the built-in face is in use.
func (f Font) Fallback() bool { return f.otf == nil }

// Reason is the load failure that caused the fallback, or nil.
func (f Font) Reason() error { return f.reason }

// NewFace returns a face for use by a single goroutine.
func (f Font) NewFace() font.Face {
	if f.otf == nil {
		return basicfont.Face7x13
	}
	face, err := opentype.NewFace(f.otf, &opentype.FaceOptions{Size: f.size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return basicfont.Face7x13
	}
	return face
}
