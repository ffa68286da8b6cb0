package domain

import "fmt"

type Tag int

const (
	TagNone Tag = iota
	TagAlt
	TagSniper
)

func (t Tag) String() string {
	switch t {
	case TagNone:
		return "none"
	case TagAlt:
		return "alt"
	case TagSniper:
		return "sniper"
	default:
		return fmt.Sprintf("<invalid tag>(%d)", int(t))
	}
}

// Tag guesses whether the player is an alt account or a sniper from their stats.
//
// The FKDR here is the raw quotient, unlike FinalsRatio. Kills without deaths give +Inf
// and no kills or deaths give NaN, which fails every comparison.
func (p Player) Tag() Tag {
	if !p.HasData || p.Level == nil || p.FinalKills == nil || p.FinalDeaths == nil {
		return TagNone
	}

	level := float64(*p.Level)
	finalKills := float64(*p.FinalKills)
	finalDeaths := float64(*p.FinalDeaths)
	fkdr := finalKills / finalDeaths

	if level < 15 && fkdr > 5 {
		return TagAlt
	}
	if level > 15 && level < 100 && level/fkdr <= 5 {
		return TagAlt
	}

	if p.Losses == nil {
		return TagNone
	}

	deathsPerLoss := finalDeaths / float64(*p.Losses)
	if level < 150 && deathsPerLoss < 0.75 && fkdr < 1.5 {
		return TagSniper
	}

	return TagNone
}
