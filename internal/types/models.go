// internal/types/models.go
package types

import (
	"fmt"
	"strings"
	"time"
)

// Symbol is a traded instrument. The default universe is XAUUSD and EURUSD;
// additional symbols can be enabled through configuration.
type Symbol string

const (
	SymbolXAUUSD Symbol = "XAUUSD"
	SymbolEURUSD Symbol = "EURUSD"
)

// DefaultSymbols is the symbol universe used when config doesn't override it.
func DefaultSymbols() []Symbol {
	return []Symbol{SymbolXAUUSD, SymbolEURUSD}
}

// ParseSymbol matches s (case-insensitively) against the allowed universe.
func ParseSymbol(s string, allowed []Symbol) (Symbol, error) {
	up := Symbol(strings.ToUpper(s))
	for _, sym := range allowed {
		if sym == up {
			return sym, nil
		}
	}
	return "", fmt.Errorf("unknown symbol %q", s)
}

// Timeframe is a chart timeframe.
type Timeframe string

const (
	Timeframe1W  Timeframe = "1W"
	Timeframe1D  Timeframe = "1D"
	Timeframe4H  Timeframe = "4H"
	Timeframe1H  Timeframe = "1H"
	Timeframe15M Timeframe = "15M"
	Timeframe5M  Timeframe = "5M"
)

// Timeframes lists all timeframes from widest to narrowest. This ordering is
// the canonical sort order for artifact listings and prompt assembly.
func Timeframes() []Timeframe {
	return []Timeframe{Timeframe1W, Timeframe1D, Timeframe4H, Timeframe1H, Timeframe15M, Timeframe5M}
}

// Rank returns the timeframe's position in the canonical ordering, widest
// first. Unknown timeframes sort last.
func (t Timeframe) Rank() int {
	for i, tf := range Timeframes() {
		if tf == t {
			return i
		}
	}
	return len(Timeframes())
}

// ParseTimeframe matches s case-insensitively against the known timeframes.
func ParseTimeframe(s string) (Timeframe, error) {
	up := Timeframe(strings.ToUpper(s))
	for _, tf := range Timeframes() {
		if tf == up {
			return tf, nil
		}
	}
	return "", fmt.Errorf("unknown timeframe %q", s)
}

// SessionStatus is the lifecycle state of a trading session.
type SessionStatus string

const (
	StatusEmpty     SessionStatus = "empty"
	StatusCollected SessionStatus = "collected"
	StatusPrompted  SessionStatus = "prompted"
	StatusAnalyzed  SessionStatus = "analyzed"
)

// rank orders statuses along the forward path of the lifecycle.
func (s SessionStatus) rank() int {
	switch s {
	case StatusEmpty:
		return 0
	case StatusCollected:
		return 1
	case StatusPrompted:
		return 2
	case StatusAnalyzed:
		return 3
	}
	return -1
}

// AtLeast reports whether s has reached the given status on the forward path.
func (s SessionStatus) AtLeast(min SessionStatus) bool {
	return s.rank() >= min.rank()
}

// Session tracks one trading date through the pipeline lifecycle.
// Feed timestamps record when each input last produced data for the date;
// the empty -> collected transition fires once all enabled feeds are set.
type Session struct {
	Date   SessionDate   `json:"date"`
	Status SessionStatus `json:"status"`

	ArtifactsAt *time.Time `json:"artifacts_at,omitempty"`
	CalendarAt  *time.Time `json:"calendar_at,omitempty"`
	NewsAt      *time.Time `json:"news_at,omitempty"`

	PromptPath string     `json:"prompt_path,omitempty"`
	PromptedAt *time.Time `json:"prompted_at,omitempty"`

	ReportID   ReportID   `json:"report_id,omitempty"`
	AnalyzedAt *time.Time `json:"analyzed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Artifact is one ingested chart screenshot, keyed by (symbol, timeframe, date).
type Artifact struct {
	ID         ArtifactID  `json:"id"`
	Symbol     Symbol      `json:"symbol"`
	Timeframe  Timeframe   `json:"timeframe"`
	Date       SessionDate `json:"date"`
	Path       string      `json:"path"`
	IngestedAt time.Time   `json:"ingested_at"`
}

// Key returns the upsert key for the artifact.
func (a *Artifact) Key() ArtifactKey {
	return NewArtifactKey(a.Symbol, a.Timeframe, a.Date)
}

// Impact is the market impact level of a calendar event.
type Impact string

const (
	ImpactLow    Impact = "low"
	ImpactMedium Impact = "medium"
	ImpactHigh   Impact = "high"
)

// Dangerous reports whether the impact level contributes a danger window.
func (i Impact) Dangerous() bool {
	return i == ImpactMedium || i == ImpactHigh
}

// CalendarEvent is one scheduled economic release.
type CalendarEvent struct {
	At       time.Time `json:"at"`
	Currency string    `json:"currency"`
	Impact   Impact    `json:"impact"`
	Title    string    `json:"title"`
	Forecast string    `json:"forecast,omitempty"`
	Previous string    `json:"previous,omitempty"`
	Actual   string    `json:"actual,omitempty"`
}

// DangerWindow is a merged interval around medium/high-impact events.
type DangerWindow struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Titles []string  `json:"titles"`
}

// NewsItem is one cached headline. Stance and StanceConfidence are attached
// by the source adapter and treated as opaque payload by the pipeline.
type NewsItem struct {
	Source           string    `json:"source"`
	PublishedAt      time.Time `json:"published_at"`
	Title            string    `json:"title"`
	URL              string    `json:"url"`
	Body             string    `json:"body,omitempty"`
	Stance           string    `json:"stance,omitempty"`
	StanceConfidence float64   `json:"stance_confidence,omitempty"`
}

// DedupKey identifies a news item for append-only deduplication.
func (n *NewsItem) DedupKey() string {
	return n.Source + "|" + n.PublishedAt.UTC().Format(time.RFC3339)
}

// Bias is the directional call of a trade plan.
type Bias string

const (
	BiasLong    Bias = "long"
	BiasShort   Bias = "short"
	BiasNeutral Bias = "neutral"
)

// Report is the validated trade plan persisted for a session. Entry, Stop and
// Target are nil when the bias is neutral.
type Report struct {
	ID            ReportID       `json:"id"`
	Date          SessionDate    `json:"date"`
	Symbol        Symbol         `json:"symbol"`
	Bias          Bias           `json:"bias"`
	Entry         *float64       `json:"entry,omitempty"`
	Stop          *float64       `json:"stop,omitempty"`
	Target        *float64       `json:"target,omitempty"`
	Confidence    float64        `json:"confidence"`
	Rationale     string         `json:"rationale,omitempty"`
	DangerWindows []DangerWindow `json:"danger_windows,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}
