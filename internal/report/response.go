// internal/report/response.go
// Package report validates raw analysis responses and turns them into
// persisted trade reports.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/user/chartadvisor/internal/types"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Response is the JSON payload expected back from the analysis step. Entry,
// stop and target may be omitted only for a neutral bias.
type Response struct {
	Symbol     string   `json:"symbol" validate:"required"`
	Bias       string   `json:"bias" validate:"required,oneof=long short neutral"`
	Entry      *float64 `json:"entry" validate:"required_unless=Bias neutral"`
	Stop       *float64 `json:"stop" validate:"required_unless=Bias neutral"`
	Target     *float64 `json:"target" validate:"required_unless=Bias neutral"`
	Confidence float64  `json:"confidence" validate:"gte=0,lte=1"`
	Rationale  string   `json:"rationale"`
}

// Parse extracts and validates a response from raw text. The payload may be
// the whole input, a fenced ```json block, or the first balanced JSON object
// in the text. Referential checks run against the session's artifacts: the
// response symbol must be one the session actually has charts for.
func Parse(raw []byte, sessionSymbols []types.Symbol) (*Response, error) {
	payload, err := ExtractJSON(raw)
	if err != nil {
		return nil, &types.ValidationError{Problems: []string{err.Error()}}
	}

	var resp Response
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, &types.ValidationError{Problems: []string{fmt.Sprintf("malformed JSON: %v", err)}}
	}

	if err := validate.Struct(&resp); err != nil {
		return nil, &types.ValidationError{Problems: problems(err)}
	}

	symbol, err := types.ParseSymbol(resp.Symbol, sessionSymbols)
	if err != nil {
		return nil, &types.ValidationError{Problems: []string{
			fmt.Sprintf("symbol %q does not match any session artifact", resp.Symbol),
		}}
	}
	resp.Symbol = string(symbol)
	return &resp, nil
}

// Build turns a validated response into a report for date.
func Build(resp *Response, date types.SessionDate, windows []types.DangerWindow) *types.Report {
	report := &types.Report{
		ID:            types.NewReportID(),
		Date:          date,
		Symbol:        types.Symbol(resp.Symbol),
		Bias:          types.Bias(resp.Bias),
		Confidence:    resp.Confidence,
		Rationale:     resp.Rationale,
		DangerWindows: windows,
		CreatedAt:     time.Now().UTC(),
	}
	if report.Bias != types.BiasNeutral {
		report.Entry = resp.Entry
		report.Stop = resp.Stop
		report.Target = resp.Target
	}
	return report
}

// ExtractJSON locates the JSON object in raw text. Fenced blocks win; failing
// that, the first balanced top-level object is returned.
func ExtractJSON(raw []byte) ([]byte, error) {
	text := string(raw)

	if start := strings.Index(text, "```json"); start >= 0 {
		rest := text[start+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return []byte(strings.TrimSpace(rest[:end])), nil
		}
	}

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return nil, errors.New("no JSON object found in response")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			escaped = inString
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return []byte(text[start : i+1]), nil
				}
			}
		}
	}
	return nil, errors.New("unbalanced JSON object in response")
}

func problems(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fieldProblem(fe))
	}
	return out
}

func fieldProblem(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "required_unless":
		return fmt.Sprintf("%s is required unless bias is neutral", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}
