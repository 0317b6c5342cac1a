package assessment

import (
	types "github.com/ficharisk/ficharisk-backend/internal/domain"
	"github.com/ficharisk/ficharisk-backend/internal/domain/assessment"
)

// ScoredAnswer is one frozen answer placed in the questionnaire: the
// points it froze and the position of the dimension its question belongs
// to. Scoring depends on nothing else, so edits to the master catalog
// never change an existing summary.
type ScoredAnswer struct {
	DimensionPosition int
	Points            int
}

// Summary is the computed result block of an assessment header.
type Summary struct {
	Slots [assessment.DimensionSlots]int
	Total int
	Tier  types.Tier
}

// Summarize folds frozen answers into per-dimension subtotals, the grand
// total and the risk tier. Order of answers does not matter. Negative
// points subtract; nothing is clamped. Answers in dimensions past the
// sixth position count toward the total only.
func Summarize(answers []ScoredAnswer) Summary {
	var s Summary
	for _, a := range answers {
		s.Total += a.Points
		if slot, ok := assessment.SlotForPosition(a.DimensionPosition); ok {
			s.Slots[slot] += a.Points
		}
	}
	s.Tier = assessment.TierForScore(s.Total)
	return s
}

func (s Summary) apply(a *types.Assessment) {
	a.ScoreDimA = s.Slots[0]
	a.ScoreDimB = s.Slots[1]
	a.ScoreDimC = s.Slots[2]
	a.ScoreDimD = s.Slots[3]
	a.ScoreDimE = s.Slots[4]
	a.ScoreDimF = s.Slots[5]
	a.TotalScore = s.Total
	a.RiskTier = s.Tier
}
