package report

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"plank/internal/domain"
)

// Poster dimensions.
const (
	PosterWidth  = 600
	PosterHeight = 800
)

var (
	unlockedTop    = color.RGBA{0xf5, 0x9e, 0x0b, 0xff}
	unlockedBottom = color.RGBA{0xb4, 0x53, 0x09, 0xff}
	lockedTop      = color.RGBA{0x9c, 0xa3, 0xaf, 0xff}
	lockedBottom   = color.RGBA{0x4b, 0x55, 0x63, 0xff}
)

// Poster draws a shareable PNG card for a.
func Poster(w io.Writer, a domain.Achievement, owner string, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	img := image.NewRGBA(image.Rect(0, 0, PosterWidth, PosterHeight))
	top, bottom := lockedTop, lockedBottom
	if a.Unlocked() {
		top, bottom = unlockedTop, unlockedBottom
	}
	gradient(img, top, bottom)

	status := "LOCKED"
	if a.Unlocked() {
		status = "UNLOCKED " + time.UnixMilli(*a.UnlockedAt).In(loc).Format(domain.DayLayout)
	}

	y := 160
	y = drawCentered(img, ascii(a.Title), y, 4)
	y = drawWrapped(img, ascii(a.Description), y+40, 2, 36)
	drawCentered(img, status, y+60, 2)
	if name := ascii(owner); name != "" {
		drawCentered(img, name, PosterHeight-140, 3)
	}
	drawCentered(img, "PLANK", PosterHeight-60, 2)

	return png.Encode(w, img)
}

func gradient(img *image.RGBA, top, bottom color.RGBA) {
	h := img.Bounds().Dy()
	for y := 0; y < h; y++ {
		t := float64(y) / float64(h-1)
		c := color.RGBA{
			R: lerp(top.R, bottom.R, t),
			G: lerp(top.G, bottom.G, t),
			B: lerp(top.B, bottom.B, t),
			A: 0xff,
		}
		draw.Draw(img, image.Rect(0, y, img.Bounds().Dx(), y+1), image.NewUniform(c), image.Point{}, draw.Src)
	}
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}

// drawCentered renders one line at the given scale, centred horizontally
// with its top at y, and returns the y below it.
func drawCentered(dst *image.RGBA, text string, y, scale int) int {
	face := basicfont.Face7x13
	d := &font.Drawer{Face: face}
	width := d.MeasureString(text).Ceil()
	height := face.Metrics().Height.Ceil()
	if width == 0 {
		return y + height*scale
	}

	line := image.NewRGBA(image.Rect(0, 0, width, height))
	d.Dst = line
	d.Src = image.White
	d.Dot = fixed.P(0, face.Metrics().Ascent.Ceil())
	d.DrawString(text)

	sw, sh := width*scale, height*scale
	x := (dst.Bounds().Dx() - sw) / 2
	draw.NearestNeighbor.Scale(dst, image.Rect(x, y, x+sw, y+sh), line, line.Bounds(), draw.Over, nil)
	return y + sh
}

func drawWrapped(dst *image.RGBA, text string, y, scale, width int) int {
	for _, line := range wrap(text, width) {
		y = drawCentered(dst, line, y, scale) + 4*scale
	}
	return y
}

func wrap(text string, width int) []string {
	var lines []string
	var cur string
	for _, word := range strings.Fields(text) {
		switch {
		case cur == "":
			cur = word
		case len(cur)+1+len(word) <= width:
			cur += " " + word
		default:
			lines = append(lines, cur)
			cur = word
		}
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}

// ascii keeps the printable ASCII runes the bitmap face can draw.
func ascii(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= 0x20 && r < 0x7f {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
