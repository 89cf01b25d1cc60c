package label

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Draw renders text onto dst with its top-left corner at offset from
// dst's origin.
func Draw(dst draw.Image, text string, offset image.Point, c color.Color, face font.Face) {
	origin := dst.Bounds().Min.Add(offset)
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(origin.X, origin.Y).Add(fixed.Point26_6{Y: face.Metrics().Ascent}),
	}
	d.DrawString(text)
}
