package crawling

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jonathan/faq-assistant/internal/logging"
	"github.com/jonathan/faq-assistant/internal/types"
)

// DefaultArticleDelay is the pause between consecutive article fetches.
const DefaultArticleDelay = 1 * time.Second

// PageFetcher fetches and parses a single page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
}

// WalkerOptions configures a Walker.
type WalkerOptions struct {
	// Delay between article fetches. Zero disables pacing.
	Delay time.Duration
	// FailFast aborts the walk on the first collection or article failure.
	FailFast  bool
	Selectors Selectors
	Logger    *zap.Logger
}

// DefaultWalkerOptions returns the options used by the scrape command.
func DefaultWalkerOptions() WalkerOptions {
	return WalkerOptions{
		Delay:     DefaultArticleDelay,
		Selectors: IntercomSelectors(),
	}
}

// WalkFailure records a page that could not be fetched.
type WalkFailure struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// WalkStats summarizes a walk.
type WalkStats struct {
	Collections       int           `json:"collections"`
	Articles          int           `json:"articles"`
	FailedCollections int           `json:"failed_collections"`
	FailedArticles    int           `json:"failed_articles"`
	Failures          []WalkFailure `json:"failures,omitempty"`
}

// Walker enumerates collections and articles of a help center, one fetch at a time.
type Walker struct {
	fetcher PageFetcher
	opts    WalkerOptions
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewWalker creates a Walker using fetcher for every page.
func NewWalker(fetcher PageFetcher, opts WalkerOptions) *Walker {
	logger := logging.OrNop(opts.Logger)
	opts.Selectors = opts.Selectors.withDefaults()

	limit := rate.Inf
	if opts.Delay > 0 {
		limit = rate.Every(opts.Delay)
	}

	return &Walker{
		fetcher: fetcher,
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// Walk scrapes every collection reachable from rootURL.
// A root page failure always aborts. Collection and article failures are
// logged and counted unless FailFast is set.
func (w *Walker) Walk(ctx context.Context, rootURL string) (*types.FAQCorpus, *WalkStats, error) {
	stats := &WalkStats{}

	rootDoc, err := w.fetcher.Fetch(ctx, rootURL)
	if err != nil {
		return nil, stats, &CrawlError{URL: rootURL, Message: "failed to fetch root listing", Cause: err}
	}

	collectionLinks, err := ExtractCollectionLinks(rootDoc, rootURL, w.opts.Selectors)
	if err != nil {
		return nil, stats, &CrawlError{URL: rootURL, Message: "failed to list collections", Cause: err}
	}
	w.logger.Info("discovered collections", zap.String("root_url", rootURL), zap.Int("count", len(collectionLinks)))

	corpus := &types.FAQCorpus{Collections: make([]types.Collection, 0, len(collectionLinks))}

	for _, link := range collectionLinks {
		if err := ctx.Err(); err != nil {
			return nil, stats, &CrawlError{URL: link.URL, Message: "walk cancelled", Cause: err}
		}

		collection, err := w.walkCollection(ctx, link, stats)
		if err != nil {
			if w.opts.FailFast || ctx.Err() != nil {
				return nil, stats, err
			}
			stats.FailedCollections++
			stats.Failures = append(stats.Failures, WalkFailure{URL: link.URL, Error: err.Error()})
			w.logger.Warn("skipping collection", zap.String("collection", link.Title), zap.Error(err))
			continue
		}

		corpus.Collections = append(corpus.Collections, *collection)
		stats.Collections++
	}

	return corpus, stats, nil
}

// walkCollection fetches a collection page and every article it links to.
// Only the collection page failure, a cancelled context or a FailFast article
// failure is returned.
func (w *Walker) walkCollection(ctx context.Context, link CollectionLink, stats *WalkStats) (*types.Collection, error) {
	doc, err := w.fetcher.Fetch(ctx, link.URL)
	if err != nil {
		return nil, &CrawlError{URL: link.URL, Message: "failed to fetch collection", Cause: err}
	}

	articleLinks, err := ExtractArticleLinks(doc, link.URL, w.opts.Selectors)
	if err != nil {
		return nil, &CrawlError{URL: link.URL, Message: "failed to list articles", Cause: err}
	}

	collection := &types.Collection{
		Title:    link.Title,
		Articles: make([]types.Article, 0, len(articleLinks)),
	}

	for _, articleLink := range articleLinks {
		if err := w.limiter.Wait(ctx); err != nil {
			return nil, &CrawlError{URL: articleLink.URL, Message: "walk cancelled", Cause: err}
		}

		articleDoc, err := w.fetcher.Fetch(ctx, articleLink.URL)
		if err != nil {
			crawlErr := &CrawlError{URL: articleLink.URL, Message: "failed to fetch article", Cause: err}
			if w.opts.FailFast || ctx.Err() != nil {
				return nil, crawlErr
			}
			stats.FailedArticles++
			stats.Failures = append(stats.Failures, WalkFailure{URL: articleLink.URL, Error: crawlErr.Error()})
			w.logger.Warn("skipping article", zap.String("url", articleLink.URL), zap.Error(err))
			continue
		}

		article := ExtractArticle(articleDoc, articleLink.Question, articleLink.URL, w.opts.Selectors)
		collection.Articles = append(collection.Articles, article)
		stats.Articles++

		w.logger.Debug("extracted article",
			zap.String("collection", link.Title),
			zap.String("url", article.URL),
			zap.Int("sections", len(article.Sections)),
			zap.Int("images", len(article.Images)),
		)
	}

	return collection, nil
}
