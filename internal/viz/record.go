package viz

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"os"
	"strconv"
	"time"

	"github.com/san-kum/stepviz/internal/layout"
)

const (
	charW, charH = 8, 16
	// GIF delays are in hundredths of a second.
	minGIFDelay  = 2
	lastGIFDelay = 100
)

var errNoFrames = errors.New("viz: nothing recorded")

var gifPalette = func() color.Palette {
	p := color.Palette{color.Black, color.White}
	for _, hex := range []string{
		layout.ColorDefault, layout.ColorActive, layout.ColorCompare, layout.ColorSwap,
		layout.ColorDone, layout.ColorVisited, layout.ColorFrontier, layout.ColorText, layout.ColorEdge,
		"#00ff00",
	} {
		p = append(p, rgb(hex))
	}
	return p
}()

// rgb parses "#rrggbb". Anything else is white.
func rgb(hex string) color.Color {
	if len(hex) != 7 || hex[0] != '#' {
		return color.White
	}
	v, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return color.White
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

// recorder collects canvas snapshots as paletted GIF frames.
type recorder struct {
	frames []*image.Paletted
	times  []time.Time
}

// capture rasterizes every lit braille dot of c into a new frame.
func (r *recorder) capture(c *Canvas, at time.Time, ink func(string) string) {
	img := image.NewPaletted(image.Rect(0, 0, c.Width*charW, c.Height*charH), gifPalette)
	dotW, dotH := charW/2, charH/4
	for row := 0; row < c.Height; row++ {
		for col := 0; col < c.Width; col++ {
			if c.text[row][col] || c.Grid[row][col] == blank {
				continue
			}
			hex := c.Colors[row][col]
			if hex == "" {
				hex = layout.ColorText
			}
			if ink != nil {
				hex = ink(hex)
			}
			idx := uint8(gifPalette.Index(rgb(hex)))
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if !c.Lit(col*2+dx, row*4+dy) {
						continue
					}
					x0, y0 := col*charW+dx*dotW, row*charH+dy*dotH
					for py := 0; py < dotH; py++ {
						for px := 0; px < dotW; px++ {
							img.SetColorIndex(x0+px, y0+py, idx)
						}
					}
				}
			}
		}
	}
	r.frames = append(r.frames, img)
	r.times = append(r.times, at)
}

func (r *recorder) count() int { return len(r.frames) }

// save encodes the frames as a looping GIF, timing each frame by the gap to
// the next capture.
func (r *recorder) save(path string) error {
	if len(r.frames) == 0 {
		return errNoFrames
	}
	anim := gif.GIF{Image: r.frames, Delay: make([]int, len(r.frames))}
	for i := range r.frames {
		d := lastGIFDelay
		if i+1 < len(r.times) {
			d = max(int(r.times[i+1].Sub(r.times[i])/(10*time.Millisecond)), minGIFDelay)
		}
		anim.Delay[i] = d
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("viz: create recording: %w", err)
	}
	if err := gif.EncodeAll(f, &anim); err != nil {
		f.Close()
		return fmt.Errorf("viz: encode recording: %w", err)
	}
	return f.Close()
}
