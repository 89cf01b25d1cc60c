package label

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
)

func writeFont(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "goregular.ttf")
	require.NoError(t, os.WriteFile(path, goregular.TTF, 0o644))
	return path
}

func TestResolve_Primary(t *testing.T) {
	f := Resolve(FontSpec{Path: writeFont(t), Size: 30})

	assert.False(t, f.Fallback())
	assert.NoError(t, f.Reason())

	face := f.NewFace()
	defer face.Close()
	assert.NotEqual(t, basicfont.Face7x13, face)
	assert.Greater(t, face.Metrics().Ascent.Ceil(), 13)
}

func TestResolve_Fallback(t *testing.T) {
	tests := []struct {
		name string
		spec func(t *testing.T) FontSpec
	}{
		{"missing file", func(t *testing.T) FontSpec {
			return FontSpec{Path: filepath.Join(t.TempDir(), "arial.ttf"), Size: 30}
		}},
		{"not a font", func(t *testing.T) FontSpec {
			p := filepath.Join(t.TempDir(), "junk.ttf")
			require.NoError(t, os.WriteFile(p, []byte("definitely not a font"), 0o644))
			return FontSpec{Path: p, Size: 30}
		}},
		{"zero size", func(t *testing.T) FontSpec {
			return FontSpec{Path: writeFont(t), Size: 0}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Resolve(tt.spec(t))
			assert.True(t, f.Fallback())
			assert.Error(t, f.Reason())
			assert.Equal(t, basicfont.Face7x13, f.NewFace())
		})
	}
}

func TestDraw(t *testing.T) {
	// sub-image with a non-zero origin, as produced by cropping
	base := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	dst := base.SubImage(image.Rect(50, 50, 100, 100)).(*image.NRGBA)
	red := color.NRGBA{R: 255, A: 255}

	Draw(dst, "1", image.Pt(10, 10), red, basicfont.Face7x13)

	var found bool
	for y := 50; y < 100 && !found; y++ {
		for x := 50; x < 100; x++ {
			if base.NRGBAAt(x, y) == red {
				assert.GreaterOrEqual(t, x, 60)
				assert.GreaterOrEqual(t, y, 60)
				assert.Less(t, y, 60+13)
				found = true
				break
			}
		}
	}
	assert.True(t, found, "label pixels not drawn")

	// nothing outside the sub-image
	for y := 0; y < 50; y++ {
		for x := 0; x < 100; x++ {
			require.Equal(t, color.NRGBA{}, base.NRGBAAt(x, y))
		}
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.Color
	}{
		{"red", color.RGBA{R: 255, A: 255}},
		{" White ", color.RGBA{R: 255, G: 255, B: 255, A: 255}},
		{"#f00", color.NRGBA{R: 255, A: 255}},
		{"#00ff00", color.NRGBA{G: 255, A: 255}},
		{"#0000ff80", color.NRGBA{B: 255, A: 0x80}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "reddish", "#12", "#gggggg", "00ff00"} {
		_, err := ParseColor(bad)
		assert.ErrorIs(t, err, errBadColor, bad)
	}
}
