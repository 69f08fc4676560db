// internal/calendar/forexfactory_test.go
package calendar

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/user/chartadvisor/internal/types"
)

const sampleMonth = `
<table>
<tr class="calendar__row">
  <td class="calendar__date">MonJan 5</td>
  <td class="calendar__time">8:30am</td>
  <td class="calendar__currency">USD</td>
  <td class="calendar__impact"><span class="icon icon--ff-impact-red high"></span></td>
  <td class="calendar__event">CPI y/y</td>
  <td class="calendar__actual">3.1%</td>
  <td class="calendar__forecast">3.0%</td>
  <td class="calendar__previous">2.9%</td>
</tr>
<tr class="calendar__row">
  <td class="calendar__date"></td>
  <td class="calendar__time">2:00pm</td>
  <td class="calendar__currency">EUR</td>
  <td class="calendar__impact"><span class="icon medium"></span></td>
  <td class="calendar__event">ECB President Speaks</td>
  <td class="calendar__actual"></td>
  <td class="calendar__forecast"></td>
  <td class="calendar__previous"></td>
</tr>
<tr class="calendar__row">
  <td class="calendar__date">TueJan 6</td>
  <td class="calendar__time">All Day</td>
  <td class="calendar__currency">USD</td>
  <td class="calendar__impact"><span class="icon low"></span></td>
  <td class="calendar__event">Bank Holiday</td>
</tr>
<tr class="calendar__row">
  <td class="calendar__date"></td>
  <td class="calendar__time">9:00am</td>
  <td class="calendar__currency">GBP</td>
  <td class="calendar__impact"><span class="icon high"></span></td>
  <td class="calendar__event">BOE Gov Speaks</td>
</tr>
</table>`

func testFactory(t *testing.T) *ForexFactory {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewForexFactory("", []string{"USD", "EUR"}, time.UTC, logger)
}

func TestParseMonth(t *testing.T) {
	ff := testFactory(t)

	events, err := ff.ParseMonth(sampleMonth, 2026)
	if err != nil {
		t.Fatal(err)
	}
	// The GBP row is filtered out by currency.
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}

	cpi := events[0]
	if !cpi.At.Equal(time.Date(2026, 1, 5, 8, 30, 0, 0, time.UTC)) {
		t.Errorf("CPI time = %v", cpi.At)
	}
	if cpi.Impact != types.ImpactHigh || cpi.Currency != "USD" || cpi.Title != "CPI y/y" {
		t.Errorf("CPI row mangled: %+v", cpi)
	}
	if cpi.Forecast != "3.0%" || cpi.Previous != "2.9%" || cpi.Actual != "3.1%" {
		t.Errorf("CPI figures mangled: %+v", cpi)
	}

	// Date carries over to rows without a date cell.
	ecb := events[1]
	if !ecb.At.Equal(time.Date(2026, 1, 5, 14, 0, 0, 0, time.UTC)) {
		t.Errorf("ECB time = %v", ecb.At)
	}
	if ecb.Impact != types.ImpactMedium {
		t.Errorf("ECB impact = %s", ecb.Impact)
	}

	// "All Day" rows land at midnight of their day.
	holiday := events[2]
	if !holiday.At.Equal(time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("holiday time = %v", holiday.At)
	}
	if holiday.Impact != types.ImpactLow {
		t.Errorf("holiday impact = %s", holiday.Impact)
	}
}

func TestMonthURL(t *testing.T) {
	ff := testFactory(t)
	got := ff.MonthURL(2026, time.January)
	want := "https://www.forexfactory.com/calendar?month=jan.2026"
	if got != want {
		t.Errorf("MonthURL = %q, want %q", got, want)
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"8:30am", 8*time.Hour + 30*time.Minute, true},
		{"2:00pm", 14 * time.Hour, true},
		{"12:00am", 0, true},
		{"All Day", 0, false},
		{"Tentative", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseClock(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("parseClock(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
