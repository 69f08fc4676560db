// internal/prompt/template.go
package prompt

// DefaultTemplate renders the daily analysis prompt. The layout is fully
// determined by its inputs; assembling twice over unchanged caches yields
// byte-identical output.
const DefaultTemplate = `# Daily Analysis Request - {{.Date}}

## Instructions

Please analyze the attached TradingView screenshots using ICT concepts and the Turtle Soup pattern.
Provide your analysis in the JSON format specified at the end of this document.

## Screenshots to Analyze

{{range .Symbols}}### {{.Symbol}}
{{if not .HasArtifacts}}- **No screenshots found** - please add to the inbox directory
{{else}}{{range .Rows}}{{if .Missing}}- {{.Timeframe}}: **Missing**
{{else}}- {{.Timeframe}}: ` + "`{{.Path}}`" + `
{{end}}{{end}}{{end}}
{{end}}## Today's Economic Calendar ({{.Currencies}})

{{if not .HasEvents}}No {{.Currencies}} events scheduled for today.
{{else}}{{if .HighImpact}}### High Impact Events ⚠️

| Time ({{$.TZ}}) | Currency | Event | Forecast | Previous |
|------------|----------|-------|----------|----------|
{{range .HighImpact}}| {{.Time}} | {{.Currency}} | {{.Title}} | {{.Forecast}} | {{.Previous}} |
{{end}}
{{end}}{{if .OtherEvents}}### Other Events

| Time ({{$.TZ}}) | Currency | Impact | Event |
|------------|----------|--------|-------|
{{range .OtherEvents}}| {{.Time}} | {{.Currency}} | {{.Impact}} | {{.Title}} |
{{end}}
{{end}}{{end}}{{if .DangerWindows}}### Danger Windows (±{{.WindowMinutes}} min around medium/high-impact events)

{{range .DangerWindows}}- {{.Start}} - {{.End}} {{$.TZ}}: {{.Titles}}
{{end}}
{{end}}## Recent Fed/FOMC News (Last {{.LookbackHours}}h)

{{if not .News}}No recent Fed-related news found.
{{else}}{{range .News}}- {{.Marker}} [{{.Title}}]({{.URL}}) - {{.Source}}
{{end}}{{end}}
## Analysis Framework

### ICT Concepts to Identify
- **Liquidity Sweeps**: Look for stops taken above/below recent highs/lows
- **Market Structure Shift (MSS)**: Break of structure indicating potential reversal
- **Fair Value Gaps (FVG)**: Imbalanced price action leaving gaps
- **Order Blocks (OB)**: Last candle before impulsive move
- **Premium/Discount**: Where is price relative to range?

### Turtle Soup Pattern
Look for:
1. Price breaks above/below a significant level (fake breakout)
2. Quick rejection back into range
3. Entry on the reversal, stop beyond the fake breakout

### Key Levels to Identify
- Previous Day High (PDH) / Previous Day Low (PDL)
- Previous Week High (PWH) / Previous Week Low (PWL)
- Session highs/lows (Asian, London, NY)

## Required Output Format

Respond with ONLY valid JSON in this exact structure:

` + "```json" + `
{
  "symbol": "XAUUSD",
  "bias": "long | short | neutral",
  "entry": 2625.00,
  "stop": 2610.00,
  "target": 2680.00,
  "confidence": 0.75,
  "rationale": "Markdown notes: liquidity sweep of PDL followed by MSS..."
}
` + "```" + `

Rules:
- bias must be one of long, short, neutral
- entry, stop and target are required numbers unless bias is neutral
- confidence is a number between 0 and 1
- symbol must be one of the symbols listed above
`
