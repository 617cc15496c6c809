package strategy

import (
	"errors"
	"strings"
)

// Condition is the estimated track condition.
type Condition string

const (
	ConditionDry  Condition = "DRY"
	ConditionDamp Condition = "DAMP"
	ConditionWet  Condition = "WET"
)

// Tire is a tire/strategy recommendation tag.
type Tire string

const (
	TireSoft       Tire = "SOFT"
	TireMediumHard Tire = "MEDIUM/HARD"
	// TireSlicksInter is the damp call; both options are reported as-is.
	TireSlicksInter Tire = "SLICKS/INTER"
	TireInterWet    Tire = "INTER/WET"

	TireSlicks Tire = "SLICKS"
	TireInters Tire = "INTERS"
	TireWets   Tire = "WETS"
)

// ErrUnknownPreset is returned by PresetByName for unsupported names.
var ErrUnknownPreset = errors.New("unknown strategy preset")

// Preset is a named precipitation threshold set.
//
// precip == 0          -> DRY  (DryCold below SoftBelowC track temp, else DryWarm)
// 0 < precip < WetFrom -> DAMP (Damp)
// precip >= WetFrom    -> WET  (Wet)
type Preset struct {
	Name       string  `json:"name"`
	WetFromMM  float64 `json:"wetFromMm"`
	SoftBelowC float64 `json:"softBelowC"`
	DryCold    Tire    `json:"dryCold"`
	DryWarm    Tire    `json:"dryWarm"`
	Damp       Tire    `json:"damp"`
	Wet        Tire    `json:"wet"`
}

var (
	// Standard is the single-location preset.
	Standard = Preset{
		Name:       "standard",
		WetFromMM:  0.2,
		SoftBelowC: 15,
		DryCold:    TireSoft,
		DryWarm:    TireMediumHard,
		Damp:       TireSlicksInter,
		Wet:        TireInterWet,
	}

	// Simplified is the route/circuit preset.
	Simplified = Preset{
		Name:       "simplified",
		WetFromMM:  0.5,
		SoftBelowC: 15,
		DryCold:    TireSlicks,
		DryWarm:    TireSlicks,
		Damp:       TireInters,
		Wet:        TireWets,
	}
)

// PresetByName looks up a built-in preset, case-insensitively.
func PresetByName(name string) (Preset, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case Standard.Name:
		return Standard, nil
	case Simplified.Name:
		return Simplified, nil
	default:
		return Preset{}, ErrUnknownPreset
	}
}

// decide applies the threshold table.
func (p Preset) decide(precipMM, trackTempC float64) (Condition, Tire) {
	switch {
	case precipMM == 0:
		if trackTempC < p.SoftBelowC {
			return ConditionDry, p.DryCold
		}
		return ConditionDry, p.DryWarm
	case precipMM < p.WetFromMM:
		return ConditionDamp, p.Damp
	default:
		return ConditionWet, p.Wet
	}
}
