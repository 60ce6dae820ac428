package entity

import "strings"

type Mode string

const (
	ModeProblemGeneration Mode = "problem_generation"
	ModeProductBuild      Mode = "product_build"
	ModeMonetizationTips  Mode = "monetization_tips"
	ModeFullProduct       Mode = "full_product"
)

// Modes lists every recognized mode in dispatch order.
var Modes = []Mode{
	ModeProblemGeneration,
	ModeProductBuild,
	ModeMonetizationTips,
	ModeFullProduct,
}

func (m Mode) Known() bool {
	for _, known := range Modes {
		if m == known {
			return true
		}
	}
	return false
}

func (m Mode) String() string {
	return string(m)
}

// ParseMode normalizes case and surrounding whitespace. Unrecognized input is
// returned unchanged so it can be echoed back to the caller.
func ParseMode(s string) (Mode, bool) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if m.Known() {
		return m, true
	}
	return Mode(s), false
}
