package wordpress

import (
	"context"
	"fmt"
	"sort"

	"github.com/pressvec/pressvec-cli/internal/core/domain"
	"github.com/pressvec/pressvec-cli/internal/core/ports/driven"
	"github.com/pressvec/pressvec-cli/internal/logger"
	"github.com/pressvec/pressvec-cli/internal/resilience"
)

// Ensure Connector implements the interface.
var _ driven.ContentSource = (*Connector)(nil)

// pageConcurrency bounds concurrent page fetches within a category.
const pageConcurrency = 3

// restBases maps built-in content type slugs to their REST bases.
// Custom types default to their own slug.
var restBases = map[string]string{
	"post": "posts",
	"page": "pages",
}

// Connector fetches published documents from one WordPress site.
type Connector struct {
	client   *Client
	settings *domain.Settings
	pageSize int
}

// New creates a connector driven by the run settings.
func New(client *Client, settings *domain.Settings) *Connector {
	return &Connector{
		client:   client,
		settings: settings,
		pageSize: DefaultPageSize,
	}
}

// FetchAll streams every indexable document, category by category in
// configuration order. Page 1 of a category reveals the total page
// count; the remaining pages are fetched with bounded concurrency and
// yielded in page order. Category failures are logged and reported on
// the error channel without stopping other categories.
func (c *Connector) FetchAll(ctx context.Context) (<-chan domain.Document, <-chan error) {
	docsCh := make(chan domain.Document)
	errsCh := make(chan error, 8)

	go func() {
		defer close(docsCh)
		defer close(errsCh)

		categories, err := c.categories(ctx)
		if err != nil {
			errsCh <- fmt.Errorf("resolve content types: %w", err)
			return
		}

		for _, category := range categories {
			select {
			case <-ctx.Done():
				return
			default:
			}
			c.fetchCategory(ctx, category, docsCh, errsCh)
		}
	}()

	return docsCh, errsCh
}

// categories resolves the content types to fetch, discovering them
// from the site when auto-discovery is enabled.
func (c *Connector) categories(ctx context.Context) ([]string, error) {
	if !c.settings.AutoDiscover {
		return c.settings.Categories(nil), nil
	}

	types, err := c.client.fetchTypes(ctx)
	if err != nil {
		return nil, err
	}

	discovered := make([]string, 0, len(types))
	for slug, t := range types {
		// Media and other no-content types have nothing to index.
		if slug == "attachment" || t.RestBase == "" {
			continue
		}
		discovered = append(discovered, slug)
	}
	sort.Strings(discovered)

	return c.settings.Categories(discovered), nil
}

// restBase resolves the REST route for a content type slug.
func restBase(category string) string {
	if base, ok := restBases[category]; ok {
		return base
	}
	return category
}

// fetchCategory drains one content type into the document channel.
func (c *Connector) fetchCategory(
	ctx context.Context,
	category string,
	docsCh chan<- domain.Document,
	errsCh chan<- error,
) {
	base := restBase(category)

	first, pageCount, err := c.client.fetchPage(ctx, base, 1, c.pageSize)
	if err != nil {
		if IsEndOfData(err) {
			logger.Debug("No content for type %s", category)
			return
		}
		logger.Warn("Fetching type %s failed: %v", category, err)
		select {
		case errsCh <- fmt.Errorf("fetch %s: %w", category, err):
		default:
		}
		return
	}
	if len(first) == 0 {
		logger.Debug("No content for type %s", category)
		return
	}

	logger.Info("Fetching type %s: %d pages", category, pageCount)
	if !c.yieldPosts(ctx, category, first, docsCh) {
		return
	}
	if pageCount <= 1 {
		return
	}

	pages := make([]int, 0, pageCount-1)
	for p := 2; p <= pageCount; p++ {
		pages = append(pages, p)
	}

	outcomes, err := resilience.RunBounded(ctx, pages, pageConcurrency,
		func(ctx context.Context, page int) ([]post, error) {
			posts, _, err := c.client.fetchPage(ctx, base, page, c.pageSize)
			return posts, err
		})
	if err != nil {
		logger.Warn("Fetching type %s pages failed: %v", category, err)
		return
	}

	for i, outcome := range outcomes {
		if outcome.Err != nil {
			if IsEndOfData(outcome.Err) {
				logger.Debug("Type %s page %d past end of data", category, pages[i])
				continue
			}
			// Abandon the category's remaining pages; documents
			// already yielded stay valid.
			logger.Warn("Type %s page %d failed, abandoning remaining pages: %v",
				category, pages[i], outcome.Err)
			select {
			case errsCh <- fmt.Errorf("fetch %s page %d: %w", category, pages[i], outcome.Err):
			default:
			}
			return
		}
		if !c.yieldPosts(ctx, category, outcome.Value, docsCh) {
			return
		}
	}
}

// yieldPosts normalises records and sends the non-empty ones. Returns
// false when the context was cancelled.
func (c *Connector) yieldPosts(
	ctx context.Context,
	category string,
	posts []post,
	docsCh chan<- domain.Document,
) bool {
	for _, p := range posts {
		doc := normalisePost(category, p)
		if doc.IsEmpty() {
			logger.Debug("Skipping empty document %s/%d", category, p.ID)
			continue
		}
		select {
		case <-ctx.Done():
			return false
		case docsCh <- doc:
		}
	}
	return true
}
