package split

import (
	"fmt"
	"image"
)

// Remainder selects what happens to the pixels left over when the image
// size is not a multiple of the grid size.
type Remainder string

const (
	// RemainderDiscard drops trailing pixels; every fragment has the same size.
	RemainderDiscard Remainder = "discard"
	// RemainderDistribute extends the last row and column to the image edge.
	RemainderDistribute Remainder = "distribute"
)

// Grid is the R x C partition of the source image.
type Grid struct {
	Rows int
	Cols int
}

// Fragment is one grid cell. Seq is 1-based in row-major order.
type Fragment struct {
	Seq    int
	Row    int
	Col    int
	Bounds image.Rectangle
	Path   string
}

// Cells lays out the fragments of a w x h image. It returns the cells in
// row-major order together with the nominal fragment width and height.
func Cells(g Grid, w, h int, rem Remainder) ([]Fragment, int, int, error) {
	if g.Rows < 1 || g.Cols < 1 {
		return nil, 0, 0, fmt.Errorf("%w: grid %dx%d, rows and cols must be >= 1", ErrConfig, g.Rows, g.Cols)
	}
	switch rem {
	case RemainderDiscard, RemainderDistribute:
	case "":
		rem = RemainderDiscard
	default:
		return nil, 0, 0, fmt.Errorf("%w: unknown remainder policy %q", ErrConfig, rem)
	}

	fw, fh := w/g.Cols, h/g.Rows
	if fw < 1 || fh < 1 {
		return nil, 0, 0, fmt.Errorf("%w: image %dx%d too small for %dx%d grid", ErrConfig, w, h, g.Rows, g.Cols)
	}

	cells := make([]Fragment, 0, g.Rows*g.Cols)
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			rect := image.Rect(c*fw, r*fh, (c+1)*fw, (r+1)*fh)
			if rem == RemainderDistribute {
				if c == g.Cols-1 {
					rect.Max.X = w
				}
				if r == g.Rows-1 {
					rect.Max.Y = h
				}
			}
			cells = append(cells, Fragment{
				Seq:    r*g.Cols + c + 1,
				Row:    r,
				Col:    c,
				Bounds: rect,
			})
		}
	}
	return cells, fw, fh, nil
}
