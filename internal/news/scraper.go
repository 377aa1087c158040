package news

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"market-event-monitor/internal/types"
)

// Scraper fetches headlines from configured financial news sites. It
// implements the NewsFetcher collaborator; the core pipeline only sees the
// resulting Article values.
type Scraper struct {
	sources []Source
	timeout time.Duration
	clock   func() time.Time
}

// Source describes one news site and the CSS selectors that locate articles
// on its search page.
type Source struct {
	Name       string
	BaseURL    string
	SearchPath string // {symbol} is replaced with the queried symbol
	Selectors  Selectors
	RateLimit  time.Duration
}

// Selectors holds the CSS selectors for extracting article fields.
type Selectors struct {
	Container string
	Title     string
	URL       string
	Body      string
}

func NewScraper(sources []Source, timeout time.Duration) *Scraper {
	if len(sources) == 0 {
		sources = defaultSources()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Scraper{sources: sources, timeout: timeout, clock: time.Now}
}

func (s *Scraper) Name() string { return "scraper" }

func defaultSources() []Source {
	return []Source{
		{
			Name:       "FinanceWire",
			BaseURL:    "https://www.reuters.com",
			SearchPath: "/site-search/?query={symbol}",
			Selectors: Selectors{
				Container: "li.search-results__item",
				Title:     "h3 a",
				URL:       "h3 a",
				Body:      "p",
			},
			RateLimit: 2 * time.Second,
		},
		{
			Name:       "MarketWatch",
			BaseURL:    "https://www.marketwatch.com",
			SearchPath: "/search?q={symbol}",
			Selectors: Selectors{
				Container: "div.searchresult",
				Title:     "a",
				URL:       "a",
				Body:      "p",
			},
			RateLimit: 2 * time.Second,
		},
	}
}

// Fetch scrapes every configured source for every symbol. Per-source
// failures are skipped; the pipeline runs on whatever was collected.
func (s *Scraper) Fetch(ctx context.Context, symbols []string, from, to string) ([]types.Article, error) {
	var all []types.Article
	for _, symbol := range symbols {
		for _, src := range s.sources {
			if err := ctx.Err(); err != nil {
				return all, err
			}
			articles, err := s.scrapeSource(ctx, src, symbol)
			if err != nil {
				continue
			}
			all = append(all, filterByDate(articles, from, to)...)
			time.Sleep(src.RateLimit)
		}
	}
	return all, nil
}

func (s *Scraper) scrapeSource(ctx context.Context, src Source, symbol string) ([]types.Article, error) {
	var articles []types.Article

	c := colly.NewCollector(
		colly.AllowedDomains(domainOf(src.BaseURL)),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(s.timeout)
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	})

	today := s.clock().Format(types.DateLayout)
	c.OnHTML(src.Selectors.Container, func(e *colly.HTMLElement) {
		title := strings.TrimSpace(e.ChildText(src.Selectors.Title))
		if title == "" {
			return
		}
		link := e.Request.AbsoluteURL(e.ChildAttr(src.Selectors.URL, "href"))
		articles = append(articles, types.Article{
			Title:  title,
			Source: src.Name,
			URL:    link,
			Date:   today,
			Body:   extractBody(e.DOM, src.Selectors.Body),
			Symbol: symbol,
		})
	})

	searchURL := src.BaseURL + strings.ReplaceAll(src.SearchPath, "{symbol}", url.QueryEscape(symbol))
	if err := c.Visit(searchURL); err != nil {
		return nil, fmt.Errorf("scrape %s: %w", src.Name, err)
	}
	c.Wait()
	return articles, nil
}

// extractBody pulls the text under the body selector, collapsing whitespace.
func extractBody(sel *goquery.Selection, bodySelector string) string {
	var parts []string
	sel.Find(bodySelector).Each(func(_ int, p *goquery.Selection) {
		if t := strings.TrimSpace(p.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

func filterByDate(articles []types.Article, from, to string) []types.Article {
	out := articles[:0]
	for _, a := range articles {
		if from != "" && a.Date < from {
			continue
		}
		if to != "" && a.Date >= to {
			continue
		}
		out = append(out, a)
	}
	return out
}

func domainOf(base string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	return u.Host
}
