// internal/news/fed.go
package news

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/user/chartadvisor/internal/types"
)

const fedBaseURL = "https://www.federalreserve.gov"

// maxBodyFetches caps per-sweep article downloads; listings alone are enough
// for most items.
const maxBodyFetches = 5

var urlDatePattern = regexp.MustCompile(`(\d{4})(\d{2})(\d{2})`)

// Fed scrapes Federal Reserve press-release listings. FOMC statements
// additionally get their body fetched and converted to markdown so stance
// classification can run on the full text.
type Fed struct {
	client  *resty.Client
	baseURL string
	logger  *slog.Logger
}

func NewFed(logger *slog.Logger) *Fed {
	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetHeader("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")

	return &Fed{client: client, baseURL: fedBaseURL, logger: logger}
}

func (f *Fed) Name() string { return "fed" }

// Fetch pulls the press-release listing pages for the years covering
// [since, now] and returns items published after since, newest first.
func (f *Fed) Fetch(ctx context.Context, since time.Time) ([]types.NewsItem, error) {
	year := time.Now().Year()
	urls := []string{
		f.baseURL + "/newsevents/pressreleases.htm",
		fmt.Sprintf("%s/newsevents/pressreleases/%d-all.htm", f.baseURL, year),
		fmt.Sprintf("%s/newsevents/pressreleases/%d-monetary.htm", f.baseURL, year),
	}
	if since.Year() < year {
		urls = append(urls,
			fmt.Sprintf("%s/newsevents/pressreleases/%d-all.htm", f.baseURL, since.Year()))
	}

	seen := make(map[string]bool)
	var items []types.NewsItem
	for _, url := range urls {
		resp, err := f.client.R().SetContext(ctx).Get(url)
		if err != nil {
			return nil, &types.FetchError{Source: f.Name(), Err: err}
		}
		if resp.StatusCode() != 200 {
			f.logger.Warn("press-release page unavailable", "url", url, "status", resp.StatusCode())
			continue
		}

		parsed, err := f.ParseListing(resp.String())
		if err != nil {
			return nil, &types.FetchError{Source: f.Name(), Err: err}
		}
		for _, item := range parsed {
			if item.PublishedAt.Before(since) || seen[item.URL] {
				continue
			}
			seen[item.URL] = true
			items = append(items, item)
		}
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})

	f.enrichStatements(ctx, items)
	return items, nil
}

// ParseListing extracts press releases from a listing page. The publish date
// comes from a <time> element when present, otherwise from the 8-digit date
// embedded in the release URL.
func (f *Fed) ParseListing(html string) ([]types.NewsItem, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing press-release HTML: %w", err)
	}

	var items []types.NewsItem
	doc.Find("div.row, div.news-item, div.eventlist").Each(func(_ int, row *goquery.Selection) {
		link := row.Find("a").First()
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		title := strings.TrimSpace(link.Text())
		if len(title) < 10 {
			return
		}
		if !strings.HasPrefix(href, "http") {
			href = f.baseURL + href
		}
		if !strings.Contains(href, "/pressreleases/") && !strings.Contains(href, "/newsevents/") {
			return
		}

		publishedAt := parseListingDate(row, href)
		if publishedAt.IsZero() {
			return
		}

		stance, confidence := ClassifyStance(title)
		items = append(items, types.NewsItem{
			Source:           "Federal Reserve (" + CategorizeRelease(title) + ")",
			PublishedAt:      publishedAt,
			Title:            title,
			URL:              href,
			Stance:           stance,
			StanceConfidence: confidence,
		})
	})
	return items, nil
}

// enrichStatements downloads the bodies of FOMC items and re-classifies the
// stance on the full text. Body failures are logged and leave the headline
// classification in place.
func (f *Fed) enrichStatements(ctx context.Context, items []types.NewsItem) {
	fetched := 0
	for i := range items {
		if fetched >= maxBodyFetches {
			return
		}
		if !strings.Contains(items[i].Source, "FOMC") {
			continue
		}

		body, err := f.fetchBody(ctx, items[i].URL)
		if err != nil {
			f.logger.Warn("failed to fetch statement body", "url", items[i].URL, "error", err)
			continue
		}
		fetched++

		items[i].Body = body
		stance, confidence := ClassifyStance(body)
		items[i].Stance = stance
		items[i].StanceConfidence = confidence
	}
}

// fetchBody downloads an article and converts its main content to markdown.
func (f *Fed) fetchBody(ctx context.Context, url string) (string, error) {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		return "", err
	}

	for _, selector := range []string{"div#article", "article", "div.content", "main"} {
		section := doc.Find(selector).First()
		if section.Length() == 0 {
			continue
		}
		section.Find("script, style, nav, footer").Remove()
		raw, err := goquery.OuterHtml(section)
		if err != nil {
			continue
		}
		markdown, err := htmltomarkdown.ConvertString(raw)
		if err != nil {
			continue
		}
		markdown = strings.TrimSpace(markdown)
		if len(markdown) > 200 {
			return markdown, nil
		}
	}
	return "", fmt.Errorf("no article content found")
}

func parseListingDate(row *goquery.Selection, href string) time.Time {
	timeElem := row.Find("time").First()
	if dt, ok := timeElem.Attr("datetime"); ok {
		if t, err := time.Parse("2006-01-02", dt); err == nil {
			return t
		}
		if t, err := time.Parse(time.RFC3339, dt); err == nil {
			return t
		}
	}
	if text := strings.TrimSpace(timeElem.Text()); text != "" {
		for _, layout := range []string{"January 2, 2006", "Jan 2, 2006", "1/2/2006"} {
			if t, err := time.Parse(layout, text); err == nil {
				return t
			}
		}
	}
	// Release URLs embed the date, e.g. monetary20260128a.htm.
	if m := urlDatePattern.FindStringSubmatch(href); m != nil {
		if t, err := time.Parse("20060102", m[0]); err == nil {
			return t
		}
	}
	return time.Time{}
}
