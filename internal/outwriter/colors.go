package outwriter

import (
	"strings"

	"github.com/couchcryptid/water-testing-etl/internal/domain"
	"github.com/fatih/color"
)

// palette holds the colors for one render. Colors are forced on or off so
// output does not depend on whether stdout is a terminal.
type palette struct {
	malty    *color.Color
	balanced *color.Color
	bitter   *color.Color
	failure  *color.Color
}

func newPalette(useColors bool) palette {
	p := palette{
		malty:    color.New(color.FgYellow),
		balanced: color.New(color.FgGreen, color.Bold),
		bitter:   color.New(color.FgRed),
		failure:  color.New(color.FgRed, color.Bold),
	}
	for _, c := range []*color.Color{p.malty, p.balanced, p.bitter, p.failure} {
		if useColors {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// balance colors a balance label by which side of "Balanced" it falls on.
func (p palette) balance(label string) string {
	switch {
	case label == domain.BalanceBalanced:
		return p.balanced.Sprint(label)
	case strings.HasSuffix(label, "Malty"):
		return p.malty.Sprint(label)
	case strings.HasSuffix(label, "Bitter"):
		return p.bitter.Sprint(label)
	default:
		return label
	}
}

func (p palette) err(msg string) string {
	return p.failure.Sprint(msg)
}
