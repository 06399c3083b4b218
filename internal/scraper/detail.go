package scraper

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"sjsage522/propertyworker/helpers"
	"sjsage522/propertyworker/logger"
	"sjsage522/propertyworker/services/cache"
)

// registrationCacheTTL bounds how long a looked-up registration number is
// reused for a pdp path that reappears on later pages.
const registrationCacheTTL = 24 * time.Hour

// registrationStrategy extracts a registration number from a parsed detail
// page, returning "" when it finds nothing.
type registrationStrategy func(doc *goquery.Document) string

// Strategies are tried in order; the first non-empty result wins. Specific
// class selectors first, then attribute-substring selectors, then a
// free-text scan as the last resort.
var registrationStrategies = []registrationStrategy{
	selectorStrategy("span.pdp__header--reraid__id"),
	selectorStrategy(`span[class*="rera"]`),
	selectorStrategy(`div[class*="rera"]`),
	selectorStrategy("span.rera-id"),
	selectorStrategy(".rera-number"),
	freeTextStrategy,
}

// RegistrationFetcher retrieves the government registration (RERA) number
// from a project's detail page. Every failure mode degrades to a sentinel
// string; it never returns an error to its caller.
type RegistrationFetcher struct {
	BaseURL  string
	CacheSvc cache.CacheService

	// fetchFunc is swapped out in tests.
	fetchFunc func(url string) (io.Reader, error)

	log *logger.Logger
}

// NewRegistrationFetcher creates a fetcher rooted at the given site origin.
// cacheSvc may be nil, disabling lookup reuse.
func NewRegistrationFetcher(baseURL string, cacheSvc cache.CacheService) *RegistrationFetcher {
	return &RegistrationFetcher{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		CacheSvc:  cacheSvc,
		fetchFunc: helpers.FetchWithRandomHeaders,
		log:       logger.ForDetail(),
	}
}

// Fetch resolves the registration number for a relative detail-page path.
// An empty path returns "" without any network call.
func (f *RegistrationFetcher) Fetch(pdpPath string) string {
	if pdpPath == "" {
		return ""
	}

	if f.CacheSvc != nil {
		if cached, err := f.CacheSvc.Get(cacheKey(pdpPath)); err == nil {
			f.log.Debug().Str("pdp_path", pdpPath).Msg("Registration number served from cache")
			return string(cached)
		}
	}

	fullURL := f.BaseURL + "/" + strings.TrimLeft(pdpPath, "/")

	body, err := f.fetchFunc(fullURL)
	if err != nil {
		if isTimeout(err) {
			f.log.Warn().Str("pdp_path", pdpPath).Msg("Registration lookup timed out")
			return RegistrationTimeout
		}
		f.log.Warn().Err(err).Str("pdp_path", pdpPath).Msg("Registration lookup network error")
		return RegistrationNetworkError
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		f.log.Warn().Err(err).Str("pdp_path", pdpPath).Msg("Registration page parse error")
		return RegistrationError
	}

	for _, strategy := range registrationStrategies {
		if text := strategy(doc); text != "" {
			if f.CacheSvc != nil {
				// Sentinels never reach this point, so only real
				// numbers are cached.
				if err := f.CacheSvc.Set(cacheKey(pdpPath), []byte(text), registrationCacheTTL); err != nil {
					f.log.Debug().Err(err).Msg("Failed to cache registration number")
				}
			}
			return text
		}
	}

	return RegistrationNotAvailable
}

func cacheKey(pdpPath string) string {
	return "rera:" + pdpPath
}

// isTimeout reports whether the fetch failed on the per-request deadline.
func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// selectorStrategy extracts the trimmed text of the first element matching
// the selector.
func selectorStrategy(selector string) registrationStrategy {
	return func(doc *goquery.Document) string {
		return strings.TrimSpace(doc.Find(selector).First().Text())
	}
}

// freeTextStrategy scans for any text node containing "rera"
// case-insensitively and returns its parent element's trimmed text.
func freeTextStrategy(doc *goquery.Document) string {
	var result string
	doc.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, node := range s.Nodes {
			for child := node.FirstChild; child != nil; child = child.NextSibling {
				if child.Type != html.TextNode {
					continue
				}
				if !strings.Contains(strings.ToLower(child.Data), "rera") {
					continue
				}
				if text := strings.TrimSpace(s.Text()); text != "" {
					result = text
					return false
				}
			}
		}
		return true
	})
	return result
}
