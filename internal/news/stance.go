// internal/news/stance.go
// Package news fetches and classifies Fed/FOMC headlines for the news cache.
package news

import "strings"

const (
	StanceHawkish = "hawkish"
	StanceDovish  = "dovish"
	StanceNeutral = "neutral"
)

var hawkishKeywords = []string{
	"rate hike", "raise rates", "raising rates", "tighten", "tightening",
	"inflation concern", "inflation worry", "hot inflation", "sticky inflation",
	"restrictive", "higher for longer", "more hikes", "additional hike",
	"hawkish", "aggressive", "combat inflation", "price stability",
	"elevated inflation", "upside risks",
}

var dovishKeywords = []string{
	"rate cut", "cutting rates", "lower rates", "easing", "pause",
	"soft landing", "cooling inflation", "disinflation", "slowing economy",
	"dovish", "accommodative", "support growth", "economic weakness",
	"recession", "slowdown", "downside risks", "labor market cooling",
}

// ClassifyStance scores text against hawkish and dovish keyword lists and
// returns a stance with a confidence in [0, 1]. Text with no keyword hits is
// neutral at low confidence; a tie between the lists is neutral at slightly
// higher confidence.
func ClassifyStance(text string) (string, float64) {
	lower := strings.ToLower(text)

	hawkish := 0
	for _, kw := range hawkishKeywords {
		if strings.Contains(lower, kw) {
			hawkish++
		}
	}
	dovish := 0
	for _, kw := range dovishKeywords {
		if strings.Contains(lower, kw) {
			dovish++
		}
	}

	switch {
	case hawkish == 0 && dovish == 0:
		return StanceNeutral, 0.3
	case hawkish == dovish:
		return StanceNeutral, 0.4
	case hawkish > dovish:
		return StanceHawkish, stanceConfidence(hawkish - dovish)
	default:
		return StanceDovish, stanceConfidence(dovish - hawkish)
	}
}

// stanceConfidence maps the keyword margin to 0.5 plus 0.1 per point of
// margin, capped at 0.9.
func stanceConfidence(margin int) float64 {
	conf := 0.5 + 0.1*float64(margin)
	if conf > 0.9 {
		conf = 0.9
	}
	return conf
}

var fomcKeywords = []string{
	"fomc", "federal open market", "monetary policy", "interest rate",
	"funds rate", "policy decision", "rate decision",
}

var speechKeywords = []string{"speech", "remarks", "testimony", "chair powell", "governor"}

var economicKeywords = []string{"inflation", "employment", "gdp", "economic", "beige book"}

// CategorizeRelease buckets a Fed release title by type.
func CategorizeRelease(title string) string {
	lower := strings.ToLower(title)
	switch {
	case containsAny(lower, fomcKeywords):
		return "FOMC"
	case containsAny(lower, speechKeywords):
		return "Speech"
	case containsAny(lower, economicKeywords):
		return "Economic Data"
	default:
		return "Other"
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
