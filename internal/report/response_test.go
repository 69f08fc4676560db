// internal/report/response_test.go
package report

import (
	"errors"
	"strings"
	"testing"

	"github.com/user/chartadvisor/internal/types"
)

var sessionSymbols = []types.Symbol{types.SymbolXAUUSD}

const validLong = `{
  "symbol": "XAUUSD",
  "bias": "long",
  "entry": 2625.0,
  "stop": 2610.0,
  "target": 2680.0,
  "confidence": 0.7,
  "rationale": "Sweep of PDL followed by MSS."
}`

func TestParseValid(t *testing.T) {
	resp, err := Parse([]byte(validLong), sessionSymbols)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Bias != "long" || *resp.Entry != 2625.0 || resp.Confidence != 0.7 {
		t.Errorf("parsed response mangled: %+v", resp)
	}
}

func TestParseFencedBlock(t *testing.T) {
	raw := "Here is my analysis.\n\n```json\n" + validLong + "\n```\n\nGood luck."
	resp, err := Parse([]byte(raw), sessionSymbols)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Symbol != "XAUUSD" {
		t.Errorf("symbol = %q", resp.Symbol)
	}
}

func TestParseBraceBalanced(t *testing.T) {
	raw := "Analysis follows: " + validLong + " end of message"
	if _, err := Parse([]byte(raw), sessionSymbols); err != nil {
		t.Fatal(err)
	}
}

func TestParseRejections(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		problem string
	}{
		{
			"bad bias",
			`{"symbol":"XAUUSD","bias":"bullish","entry":1,"stop":1,"target":1,"confidence":0.5}`,
			"bias must be one of",
		},
		{
			"confidence above one",
			`{"symbol":"XAUUSD","bias":"neutral","confidence":1.5}`,
			"confidence must be less than or equal to 1",
		},
		{
			"missing entry for long",
			`{"symbol":"XAUUSD","bias":"long","stop":2610,"target":2680,"confidence":0.7}`,
			"entry is required unless bias is neutral",
		},
		{
			"symbol not in session",
			`{"symbol":"GBPUSD","bias":"neutral","confidence":0.5}`,
			"does not match any session artifact",
		},
		{
			"no JSON at all",
			"I could not produce an analysis today.",
			"no JSON object found",
		},
		{
			"malformed JSON",
			`{"symbol": "XAUUSD", "bias": }`,
			"malformed JSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw), sessionSymbols)
			if err == nil {
				t.Fatal("expected a validation error")
			}
			var verr *types.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error type = %T", err)
			}
			found := false
			for _, p := range verr.Problems {
				if strings.Contains(p, tt.problem) {
					found = true
				}
			}
			if !found {
				t.Errorf("problems %v missing %q", verr.Problems, tt.problem)
			}
		})
	}
}

func TestParseNeutralWithoutLevels(t *testing.T) {
	raw := `{"symbol":"XAUUSD","bias":"neutral","confidence":0.4,"rationale":"Chop expected into FOMC."}`
	resp, err := Parse([]byte(raw), sessionSymbols)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Entry != nil {
		t.Error("neutral response should not require levels")
	}
}

func TestBuild(t *testing.T) {
	resp, err := Parse([]byte(validLong), sessionSymbols)
	if err != nil {
		t.Fatal(err)
	}
	windows := []types.DangerWindow{{Titles: []string{"CPI y/y"}}}

	rep := Build(resp, "2026-01-05", windows)
	if rep.ID == "" {
		t.Error("report should get an ID")
	}
	if rep.Symbol != types.SymbolXAUUSD || rep.Bias != types.BiasLong {
		t.Errorf("report mangled: %+v", rep)
	}
	if rep.Entry == nil || *rep.Entry != 2625.0 {
		t.Error("levels should carry over for a directional bias")
	}
	if len(rep.DangerWindows) != 1 {
		t.Error("danger windows should be attached")
	}
}

func TestBuildNeutralDropsLevels(t *testing.T) {
	entry := 1.0
	resp := &Response{Symbol: "XAUUSD", Bias: "neutral", Entry: &entry, Confidence: 0.4}

	rep := Build(resp, "2026-01-05", nil)
	if rep.Entry != nil || rep.Stop != nil || rep.Target != nil {
		t.Error("neutral report should not carry levels")
	}
}

func TestExtractJSONNested(t *testing.T) {
	raw := `prefix {"a": {"b": "close brace in string }"}, "c": [1, 2]} suffix`
	got, err := ExtractJSON([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"a": {"b": "close brace in string }"}, "c": [1, 2]}`
	if string(got) != want {
		t.Errorf("ExtractJSON = %q, want %q", got, want)
	}
}
