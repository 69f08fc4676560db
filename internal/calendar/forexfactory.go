// internal/calendar/forexfactory.go
// Package calendar fetches economic-calendar events and derives the danger
// windows around high-volatility releases.
package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/user/chartadvisor/internal/types"
)

const defaultBaseURL = "https://www.forexfactory.com/calendar"

var monthNames = []string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}

// ForexFactory scrapes the ForexFactory monthly calendar pages.
type ForexFactory struct {
	client     *resty.Client
	baseURL    string
	currencies map[string]bool
	loc        *time.Location
	logger     *slog.Logger
}

func NewForexFactory(baseURL string, currencies []string, loc *time.Location, logger *slog.Logger) *ForexFactory {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	allowed := make(map[string]bool, len(currencies))
	for _, c := range currencies {
		allowed[strings.ToUpper(c)] = true
	}

	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetHeader("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")

	return &ForexFactory{
		client:     client,
		baseURL:    baseURL,
		currencies: allowed,
		loc:        loc,
		logger:     logger,
	}
}

// MonthURL builds the calendar URL for a given month, e.g. "?month=jan.2026".
func (f *ForexFactory) MonthURL(year int, month time.Month) string {
	return fmt.Sprintf("%s?month=%s.%d", f.baseURL, monthNames[month-1], year)
}

// Fetch retrieves every month overlapping [from, to) and returns the parsed
// events inside the range.
func (f *ForexFactory) Fetch(ctx context.Context, from, to time.Time) ([]types.CalendarEvent, error) {
	var events []types.CalendarEvent

	cursor := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, f.loc)
	for cursor.Before(to) {
		url := f.MonthURL(cursor.Year(), cursor.Month())
		resp, err := f.client.R().SetContext(ctx).Get(url)
		if err != nil {
			return nil, &types.FetchError{Source: "forexfactory", Err: err}
		}
		if resp.StatusCode() != 200 {
			return nil, &types.FetchError{Source: "forexfactory", Err: fmt.Errorf("HTTP %d from %s", resp.StatusCode(), url)}
		}

		monthly, err := f.ParseMonth(resp.String(), cursor.Year())
		if err != nil {
			return nil, &types.FetchError{Source: "forexfactory", Err: err}
		}
		f.logger.Debug("calendar month parsed", "url", url, "events", len(monthly))
		events = append(events, monthly...)

		cursor = cursor.AddDate(0, 1, 0)
	}

	in := events[:0]
	for _, event := range events {
		if !event.At.Before(from) && event.At.Before(to) {
			in = append(in, event)
		}
	}
	return in, nil
}

// ParseMonth extracts events from one monthly calendar page. Rows carry their
// date only on the first event of the day, so the parser tracks the current
// date across rows. Rows that fail to parse are skipped.
func (f *ForexFactory) ParseMonth(html string, year int) ([]types.CalendarEvent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing calendar HTML: %w", err)
	}

	var events []types.CalendarEvent
	var currentDate time.Time

	doc.Find("tr.calendar__row").Each(func(_ int, row *goquery.Selection) {
		if dateText := strings.TrimSpace(row.Find("td.calendar__date").Text()); dateText != "" {
			if parsed, ok := parseDayHeading(dateText, year, f.loc); ok {
				currentDate = parsed
			}
		}
		if currentDate.IsZero() {
			return
		}

		currency := strings.ToUpper(strings.TrimSpace(row.Find("td.calendar__currency").Text()))
		if currency == "" || !f.currencies[currency] {
			return
		}

		title := strings.TrimSpace(row.Find("td.calendar__event").Text())
		if title == "" {
			return
		}

		impact := types.ImpactLow
		if class, ok := row.Find("td.calendar__impact span").Attr("class"); ok {
			switch {
			case strings.Contains(class, "high"):
				impact = types.ImpactHigh
			case strings.Contains(class, "medium"):
				impact = types.ImpactMedium
			}
		}

		at := currentDate
		timeText := strings.TrimSpace(row.Find("td.calendar__time").Text())
		if t, ok := parseClock(timeText); ok {
			at = currentDate.Add(t)
		}

		events = append(events, types.CalendarEvent{
			At:       at,
			Currency: currency,
			Impact:   impact,
			Title:    title,
			Forecast: strings.TrimSpace(row.Find("td.calendar__forecast").Text()),
			Previous: strings.TrimSpace(row.Find("td.calendar__previous").Text()),
			Actual:   strings.TrimSpace(row.Find("td.calendar__actual").Text()),
		})
	})

	return events, nil
}

// parseDayHeading parses date cells like "MonDec 16" or "Dec 16".
func parseDayHeading(text string, year int, loc *time.Location) (time.Time, bool) {
	for _, layout := range []string{"MonJan 2 2006", "Jan 2 2006"} {
		if t, err := time.ParseInLocation(layout, fmt.Sprintf("%s %d", text, year), loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseClock parses times like "8:30am" or "2:00pm" into an offset from
// midnight. "All Day", "Tentative" and empty cells report false; the event
// then lands at midnight.
func parseClock(text string) (time.Duration, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" || text == "all day" || text == "tentative" {
		return 0, false
	}
	t, err := time.Parse("3:04pm", text)
	if err != nil {
		return 0, false
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, true
}
