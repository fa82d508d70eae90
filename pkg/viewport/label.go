package viewport

import (
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// LabelOptions controls collapsed-label fitting.
type LabelOptions struct {
	MinFont float64 `toml:"min_font"`
	MaxFont float64 `toml:"max_font"`
	// CharWidth is the average glyph advance as a fraction of the font size.
	CharWidth float64 `toml:"char_width"`
	// LineHeight is the line advance as a fraction of the font size.
	LineHeight float64 `toml:"line_height"`
	// Fill is the fraction of the box usable for text.
	Fill float64 `toml:"fill"`
}

// DefaultLabelOptions returns the default label fitting constants.
func DefaultLabelOptions() LabelOptions {
	return LabelOptions{MinFont: 8, MaxFont: 96, CharWidth: 0.6, LineHeight: 1.2, Fill: 0.85}
}

// FitLabel finds the largest font size at which label fits a w by h box on
// one or two lines, by binary search. Labels that fit nowhere get the
// minimum size.
func FitLabel(label string, w, h float64, o LabelOptions) (float64, []string) {
	if label == "" || w <= 0 || h <= 0 {
		return o.MinFont, nil
	}
	availW, availH := w*o.Fill, h*o.Fill
	one := []string{label}
	two := splitLabel(label)

	fits := func(font float64) []string {
		if textWidth(label, font, o) <= availW && font*o.LineHeight <= availH {
			return one
		}
		if two == nil || 2*font*o.LineHeight > availH {
			return nil
		}
		if textWidth(two[0], font, o) <= availW && textWidth(two[1], font, o) <= availW {
			return two
		}
		return nil
	}

	lo, hi := o.MinFont, o.MaxFont
	best := fits(lo)
	if best == nil {
		if two != nil {
			return lo, two
		}
		return lo, one
	}
	bestFont := lo
	for range 24 {
		mid := (lo + hi) / 2
		if lines := fits(mid); lines != nil {
			best, bestFont, lo = lines, mid, mid
		} else {
			hi = mid
		}
		if hi-lo < 0.25 {
			break
		}
	}
	return bestFont, best
}

func textWidth(s string, font float64, o LabelOptions) float64 {
	return float64(runewidth.StringWidth(s)) * font * o.CharWidth
}

// splitLabel breaks a label in two at the separator that best balances the
// halves, or at the middle rune when there is no separator.
func splitLabel(label string) []string {
	n := utf8.RuneCountInString(label)
	if n < 2 {
		return nil
	}
	total := runewidth.StringWidth(label)
	best, bestDiff := -1, total+1
	for i, r := range label {
		if i == 0 || !strings.ContainsRune(" /-_.", r) {
			continue
		}
		cut := i
		if r != ' ' {
			cut = i + utf8.RuneLen(r)
		}
		left := runewidth.StringWidth(label[:cut])
		diff := left - (total - left)
		if diff < 0 {
			diff = -diff
		}
		if diff < bestDiff && cut < len(label) {
			best, bestDiff = cut, diff
		}
	}
	if best < 0 {
		runes := []rune(label)
		return []string{string(runes[:n/2]), string(runes[n/2:])}
	}
	return []string{strings.TrimSpace(label[:best]), strings.TrimSpace(label[best:])}
}
