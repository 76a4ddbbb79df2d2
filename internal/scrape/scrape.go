// Package scrape extracts readable content from web pages.
package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/Balogunolalere/Thoughbot/internal/logging"
)

// Content is the extracted page content. A fetch that permanently
// failed still yields a Content with Note set, so callers can record
// the outcome without special-casing.
type Content struct {
	URL   string   `json:"url"`
	Title string   `json:"title"`
	Text  string   `json:"text"`
	Links []string `json:"links"`
	Note  string   `json:"note,omitempty"` // non-empty when the fetch failed
}

// Scraper fetches and parses pages with bounded retries.
type Scraper struct {
	client     *http.Client
	maxRetries int
	delay      time.Duration
	maxText    int
	logger     *logging.Logger
}

// New creates a scraper. Retries use exponential backoff starting at
// delay.
func New(timeout time.Duration, maxRetries int, delay time.Duration) *Scraper {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if delay <= 0 {
		delay = time.Second
	}
	return &Scraper{
		client:     &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		delay:      delay,
		maxText:    20000,
		logger:     logging.New().WithComponent("scrape"),
	}
}

// Fetch retrieves one URL. Timeouts and transport failures are retried
// up to the configured attempt count; a 404 or an invalid URL is
// recorded as an empty result with a note rather than an error, per the
// collaborator contract.
func (s *Scraper) Fetch(ctx context.Context, rawURL string) (*Content, error) {
	if !validURL(rawURL) {
		return &Content{URL: rawURL, Note: "invalid URL format"}, nil
	}

	s.logger.CollaboratorCall("scraper", rawURL)
	start := time.Now()

	delay := s.delay
	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return &Content{URL: rawURL, Note: "invalid URL format"}, nil
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:141.0) Gecko/20100101 Firefox/141.0")
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

		resp, err := s.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
			resp.Body.Close()
			s.logger.CollaboratorResult("scraper", time.Since(start), nil)
			return &Content{URL: rawURL, Note: fmt.Sprintf("page not found (status %d)", resp.StatusCode)}, nil
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			continue
		}

		content, err := s.parse(resp, rawURL)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		s.logger.CollaboratorResult("scraper", time.Since(start), nil)
		return content, nil
	}

	err := fmt.Errorf("scrape %s failed after %d attempts: %w", rawURL, s.maxRetries, lastErr)
	s.logger.CollaboratorResult("scraper", time.Since(start), err)
	return nil, err
}

// parse extracts title, visible text and links from an HTML response.
func (s *Scraper) parse(resp *http.Response, pageURL string) (*Content, error) {
	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	base, _ := url.Parse(pageURL)
	content := &Content{URL: pageURL}

	var text strings.Builder
	var walk func(n *html.Node, skip bool)
	walk = func(n *html.Node, skip bool) {
		switch n.Type {
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				skip = true
			case "title":
				if content.Title == "" && n.FirstChild != nil {
					content.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "a":
				for _, attr := range n.Attr {
					if attr.Key == "href" {
						if link := resolveLink(base, attr.Val); link != "" {
							content.Links = append(content.Links, link)
						}
					}
				}
			}
		case html.TextNode:
			if !skip {
				if t := strings.TrimSpace(n.Data); t != "" {
					text.WriteString(t)
					text.WriteString(" ")
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, skip)
		}
	}
	walk(doc, false)

	content.Text = strings.TrimSpace(text.String())
	if len(content.Text) > s.maxText {
		content.Text = content.Text[:s.maxText]
	}
	return content, nil
}

func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return ""
	}
	return ref.String()
}

func validURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
