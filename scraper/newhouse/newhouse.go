// Package newhouse collects raw new-house listing records from a listing
// portal. The output is deliberately left untyped free text — room
// descriptors, area ranges, price blurbs — exactly as the site shows it;
// all interpretation happens later in the normalizer.
package newhouse

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"newhouse-analytics/config"
	"newhouse-analytics/models"
	"newhouse-analytics/utils"
)

// listingJS pulls the visible card fields off one listing page. Selectors
// cover the common fang-style card markup.
const listingJS = `
(() => {
	const cards = document.querySelectorAll(".resblock-list, .nlcd_name, li[data-role='house']");
	const out = [];
	cards.forEach(c => {
		const text = sel => { const n = c.querySelector(sel); return n ? n.textContent.trim() : ""; };
		const link = c.querySelector("a[href]");
		const locParts = [];
		c.querySelectorAll(".resblock-location span, .address a").forEach(n => locParts.push(n.textContent.trim()));
		const rooms = [];
		c.querySelectorAll(".resblock-room span, .house_type a").forEach(n => rooms.push(n.textContent.trim()));
		out.push({
			name: text(".resblock-name, .nlcd_name a"),
			type: text(".resblock-type, .house_tags span"),
			location: locParts,
			rooms: rooms,
			area: text(".resblock-area, .house_type"),
			total_price: text(".second, .prib"),
			unit_price: text(".number, .nhouse_price"),
			url: link ? link.href : "",
		});
	});
	return JSON.stringify(out);
})()
`

// card is one raw listing card as extracted by listingJS.
type card struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Location []string `json:"location"`
	Rooms    []string `json:"rooms"`
	Area     string   `json:"area"`
	Total    string   `json:"total_price"`
	Unit     string   `json:"unit_price"`
	URL      string   `json:"url"`
}

// Scraper orchestrates the listing collection.
type Scraper struct {
	cfg     *config.Config
	logger  *utils.Logger
	pool    *utils.WorkerPool
	visited *utils.VisitedSet
	retry   *utils.RetryConfig

	mu      sync.Mutex
	records []models.RawRecord
}

// New creates a ready-to-use Scraper.
func New(cfg *config.Config, logger *utils.Logger) *Scraper {
	return &Scraper{
		cfg:     cfg,
		logger:  logger,
		pool:    utils.NewWorkerPool(cfg.MaxConcurrency, cfg.RateLimitMs),
		visited: utils.NewVisitedSet(),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

// Scrape walks the configured number of listing pages and returns the raw
// records in collection order.
func (s *Scraper) Scrape() ([]models.RawRecord, error) {
	if s.cfg.StartURL == "" {
		return nil, fmt.Errorf("newhouse: NEWHOUSE_START_URL is not set")
	}

	s.logger.Info("[newhouse] Starting scrape — target: %d pages", s.cfg.PagesToScrape)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if bin := s.chromeBinary(); bin != "" {
		s.logger.Info("[newhouse] Using browser binary: %s", bin)
		opts = append(opts, chromedp.ExecPath(bin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	for page := 1; page <= s.cfg.PagesToScrape; page++ {
		pageURL := s.pageURL(page)
		s.pool.Submit(func() {
			if err := s.scrapePage(browserCtx, pageURL, page); err != nil {
				s.logger.Error("[newhouse] Page %d failed: %v", page, err)
			}
		})
	}
	s.pool.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.Info("[newhouse] Collected %d raw records from %d unique listings",
		len(s.records), s.visited.Size())
	return s.records, nil
}

func (s *Scraper) scrapePage(parent context.Context, pageURL string, page int) error {
	return s.retry.Do(parent, fmt.Sprintf("page %d", page), func() error {
		tabCtx, cancel := chromedp.NewContext(parent)
		defer cancel()
		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, 60*time.Second)
		defer cancelTimeout()

		var raw string
		err := chromedp.Run(tabCtx,
			chromedp.Navigate(pageURL),
			chromedp.Sleep(2*time.Second),
			chromedp.Evaluate(listingJS, &raw),
		)
		if err != nil {
			return fmt.Errorf("scrape %s: %w", pageURL, err)
		}

		cards, err := decodeCards(raw)
		if err != nil {
			return fmt.Errorf("decode %s: %w", pageURL, err)
		}

		kept := 0
		s.mu.Lock()
		for _, c := range cards {
			if c.URL != "" && !s.visited.Add(c.URL) {
				continue
			}
			s.records = append(s.records, buildRecord(c))
			kept++
			if kept >= s.cfg.ListingsPerPage {
				break
			}
		}
		s.mu.Unlock()

		s.logger.Info("[newhouse] Page %d done — %d cards, %d kept", page, len(cards), kept)
		return nil
	})
}

// pageURL appends the page number to the start URL, preserving any query
// the caller configured.
func (s *Scraper) pageURL(page int) string {
	u, err := url.Parse(s.cfg.StartURL)
	if err != nil {
		return s.cfg.StartURL
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}

func (s *Scraper) chromeBinary() string {
	if s.cfg.ChromeBin != "" {
		return s.cfg.ChromeBin
	}
	for _, name := range []string{"google-chrome", "chromium", "chromium-browser"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}
