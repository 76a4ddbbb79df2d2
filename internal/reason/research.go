package reason

import (
	"context"
	"fmt"
	"strings"

	"github.com/Balogunolalere/Thoughbot/internal/flow"
	"github.com/Balogunolalere/Thoughbot/internal/logging"
	"github.com/Balogunolalere/Thoughbot/internal/scrape"
	"github.com/Balogunolalere/Thoughbot/internal/search"
)

const maxExcerpt = 2000

// Researcher answers a plan step's research need: one web search, then
// the top result pages scraped concurrently.
type Researcher struct {
	Search   *search.Client
	Scraper  *scrape.Scraper
	Options  search.Options
	MaxURLs  int // pages scraped per query, default 2
	Parallel int // scrape concurrency, default MaxURLs

	logger *logging.Logger
}

// NewResearcher wires a researcher over the given collaborators.
func NewResearcher(s *search.Client, sc *scrape.Scraper, opts search.Options, maxURLs int) *Researcher {
	if maxURLs <= 0 {
		maxURLs = 2
	}
	return &Researcher{
		Search:  s,
		Scraper: sc,
		Options: opts,
		MaxURLs: maxURLs,
		logger:  logging.New().WithComponent("research"),
	}
}

// Gather runs one query and returns the findings as prompt-ready text.
// Individual page failures are reported inline rather than failing the
// whole gather.
func (r *Researcher) Gather(ctx context.Context, query string) (string, error) {
	results, err := r.Search.Search(ctx, query, r.Options)
	if err != nil {
		return "", fmt.Errorf("research %q: %w", query, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Search results for %q:\n%s\n", query, search.Format(results))

	n := len(results)
	if n > r.MaxURLs {
		n = r.MaxURLs
	}
	if n == 0 {
		return b.String(), nil
	}

	parallel := r.Parallel
	if parallel <= 0 {
		parallel = n
	}
	batch := flow.Batch{Limit: parallel}
	pages := batch.Run(ctx, n, func(ctx context.Context, i int) (any, error) {
		return r.Scraper.Fetch(ctx, results[i].URL)
	})

	for _, p := range pages {
		if p.Err != nil {
			fmt.Fprintf(&b, "\nPage %s: unavailable (%v)\n", results[p.Index].URL, p.Err)
			continue
		}
		content := p.Output.(*scrape.Content)
		if content.Note != "" {
			fmt.Fprintf(&b, "\nPage %s: %s\n", content.URL, content.Note)
			continue
		}
		excerpt := content.Text
		if len(excerpt) > maxExcerpt {
			excerpt = excerpt[:maxExcerpt]
		}
		fmt.Fprintf(&b, "\nPage %s (%s):\n%s\n", content.URL, content.Title, excerpt)
	}
	return b.String(), nil
}
