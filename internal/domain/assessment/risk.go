package assessment

import (
	"embed"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

type Tier string

const (
	TierLow      Tier = "LOW"
	TierModerate Tier = "MODERATE"
	TierSevere   Tier = "SEVERE"
	TierCritical Tier = "CRITICAL"
)

const riskThresholdsEnv = "RISK_THRESHOLDS_YAML"

//go:embed risk_thresholds.yaml
var riskThresholdsFS embed.FS

// fallback cut lines used when the YAML is missing or invalid
var fallbackThresholds = []tierThreshold{
	{Min: 126, Tier: TierCritical},
	{Min: 76, Tier: TierSevere},
	{Min: 26, Tier: TierModerate},
}

type tierThreshold struct {
	Min  int  `yaml:"min"`
	Tier Tier `yaml:"tier"`
}

type thresholdsFile struct {
	Thresholds []tierThreshold `yaml:"thresholds"`
}

var (
	thresholdsOnce sync.Once
	thresholds     []tierThreshold
)

// TierForScore maps a total score to its risk tier. Thresholds are
// evaluated highest first; anything below the lowest cut line is LOW.
func TierForScore(score int) Tier {
	for _, t := range loadThresholds() {
		if score >= t.Min {
			return t.Tier
		}
	}
	return TierLow
}

func loadThresholds() []tierThreshold {
	thresholdsOnce.Do(func() {
		thresholds = fallbackThresholds

		raw, err := readThresholdsYAML()
		if err != nil {
			return
		}
		var f thresholdsFile
		if err := yaml.Unmarshal(raw, &f); err != nil || len(f.Thresholds) == 0 {
			return
		}
		parsed := f.Thresholds
		sort.Slice(parsed, func(i, j int) bool { return parsed[i].Min > parsed[j].Min })
		for _, t := range parsed {
			if t.Tier == "" {
				return
			}
		}
		thresholds = parsed
	})
	return thresholds
}

func readThresholdsYAML() ([]byte, error) {
	if p := strings.TrimSpace(os.Getenv(riskThresholdsEnv)); p != "" {
		if raw, err := os.ReadFile(p); err == nil {
			return raw, nil
		}
	}
	return riskThresholdsFS.ReadFile("risk_thresholds.yaml")
}

// DimensionSlots is the number of fixed per-dimension subtotal columns on
// the assessment header (A through F, dimension positions 1 through 6).
const DimensionSlots = 6

// SlotForPosition maps a dimension position to its subtotal slot index
// (0 = A .. 5 = F). Dimensions beyond the six slots still count toward
// the total but carry no dedicated subtotal column.
func SlotForPosition(position int) (int, bool) {
	if position < 1 || position > DimensionSlots {
		return 0, false
	}
	return position - 1, true
}
