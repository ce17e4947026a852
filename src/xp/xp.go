/*
Package xp computes experience points awarded for publishing. XP never goes
down, and a user's level is always derived from their XP.
*/
package xp

import (
	"unicode/utf8"

	"github.com/quillpress/quill/src/utils"
)

const XPPerLevel = 100

// How much a piece of writing is worth. The gain is the body length divided
// by Divisor, but never less than FloorGain.
type Strategy struct {
	FloorGain int
	Divisor   int
}

var (
	CreateStrategy = Strategy{FloorGain: 30, Divisor: 10}
	EditStrategy   = Strategy{FloorGain: 10, Divisor: 20}
)

func (s Strategy) Gain(contentLength int) int {
	if s.Divisor <= 0 {
		return s.FloorGain
	}
	return utils.Max(s.FloorGain, contentLength/s.Divisor)
}

// Gain for a Markdown body. Length is counted in code points.
func (s Strategy) GainForBody(body string) int {
	return s.Gain(utf8.RuneCountInString(body))
}

// Returns the new XP and the level that goes with it.
func (s Strategy) Apply(prevXP int, body string) (int, int) {
	newXP := utils.Max(prevXP, 0) + s.GainForBody(body)
	return newXP, Level(newXP)
}

func Level(xp int) int {
	return utils.Max(xp, 0)/XPPerLevel + 1
}
