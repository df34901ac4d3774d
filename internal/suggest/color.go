package suggest

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// namedColors are the colour keywords the darkening step understands.
var namedColors = map[string]string{
	"white":  "#ffffff",
	"black":  "#000000",
	"red":    "#ff0000",
	"green":  "#008000",
	"blue":   "#0000ff",
	"gray":   "#808080",
	"grey":   "#808080",
	"orange": "#ffa500",
	"purple": "#800080",
	"yellow": "#ffff00",
	"pink":   "#ffc0cb",
}

var (
	hexRe = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	rgbRe = regexp.MustCompile(`^rgba?\(\s*(\d{1,3})\s*,\s*(\d{1,3})\s*,\s*(\d{1,3})\s*(?:,\s*[\d.]+\s*)?\)$`)
)

type rgb struct{ r, g, b float64 }

func parseColor(s string) (rgb, bool) {
	s = strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "!important")))
	if hex, ok := namedColors[s]; ok {
		s = hex
	}
	if m := hexRe.FindStringSubmatch(s); m != nil {
		h := m[1]
		if len(h) == 3 {
			h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
		}
		v, err := strconv.ParseUint(h, 16, 32)
		if err != nil {
			return rgb{}, false
		}
		return rgb{float64(v >> 16 & 0xff), float64(v >> 8 & 0xff), float64(v & 0xff)}, true
	}
	if m := rgbRe.FindStringSubmatch(s); m != nil {
		var c [3]float64
		for i := range c {
			n, _ := strconv.Atoi(m[i+1])
			if n > 255 {
				return rgb{}, false
			}
			c[i] = float64(n)
		}
		return rgb{c[0], c[1], c[2]}, true
	}
	return rgb{}, false
}

// Darken scales each channel of a hex, rgb() or named colour down by pct
// percent and returns it as #RRGGBB.
func Darken(color string, pct float64) (string, bool) {
	c, ok := parseColor(color)
	if !ok {
		return "", false
	}
	f := 1 - pct/100
	ch := func(v float64) int {
		return int(math.Max(0, math.Min(255, math.Round(v*f))))
	}
	return fmt.Sprintf("#%02X%02X%02X", ch(c.r), ch(c.g), ch(c.b)), true
}

// luminance is the WCAG relative luminance of c.
func luminance(c rgb) float64 {
	lin := func(v float64) float64 {
		v /= 255
		if v <= 0.03928 {
			return v / 12.92
		}
		return math.Pow((v+0.055)/1.055, 2.4)
	}
	return 0.2126*lin(c.r) + 0.7152*lin(c.g) + 0.0722*lin(c.b)
}

// IsLight reports whether color is light enough to risk poor contrast on a
// light background.
func IsLight(color string) bool {
	c, ok := parseColor(color)
	return ok && luminance(c) > 0.7
}
