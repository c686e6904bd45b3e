package game

import "nihilism-server/internal/models"

const (
	endingMinLoops   = 5
	endingMinChoices = 20
)

// endingStats is the slice of memory the ending rules look at.
type endingStats struct {
	score   int
	loops   uint64
	choices uint64
	dark    uint64
	light   uint64
}

type endingRule struct {
	ending models.EndingType
	match  func(s endingStats) bool
}

// endingRules is evaluated top to bottom and the first match wins. Predicates
// overlap (TheWatcher and Acceptance can both hold), keep the order.
var endingRules = []endingRule{
	{models.EndingTheMiddlePath, func(s endingStats) bool {
		return s.dark > 15 && s.light > 15 && absDiff(s.dark, s.light) <= 2
	}},
	{models.EndingVoidEmbrace, func(s endingStats) bool {
		return s.score >= 80 && s.dark >= 30
	}},
	{models.EndingTinyPerfectThings, func(s endingStats) bool {
		return s.score <= -60 && s.light >= 25 && s.loops >= 10
	}},
	{models.EndingJustMonika, func(s endingStats) bool {
		return s.loops >= 15 && s.choices >= 50 && abs(s.score) <= 30
	}},
	{models.EndingTranscendence, func(s endingStats) bool {
		return s.score <= -80 && s.light >= 40 && s.loops >= 8
	}},
	{models.EndingTheWatcher, func(s endingStats) bool {
		return s.loops >= 20 && s.dark < 20 && s.light < 20
	}},
	{models.EndingAcceptance, func(s endingStats) bool {
		return s.loops >= 25 && abs(s.score) <= 20
	}},
}

// CheckForEnding returns the ending the player has reached, or nil.
// Nothing is reachable before 5 loops and 20 choices.
func CheckForEnding(p *models.Player) *models.EndingRecord {
	mem := p.Memory
	if mem.TotalLoops < endingMinLoops || mem.TotalChoices < endingMinChoices {
		return nil
	}

	s := endingStats{
		score:   mem.NihilismScore,
		loops:   mem.TotalLoops,
		choices: mem.TotalChoices,
		dark:    mem.DarkChoices,
		light:   mem.LightChoices,
	}
	for _, r := range endingRules {
		if r.match(s) {
			return models.NewEndingRecord(r.ending, mem)
		}
	}
	return nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func absDiff(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}
