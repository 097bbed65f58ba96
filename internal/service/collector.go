package service

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/kapu/bookmood-go/internal/config"
	"github.com/kapu/bookmood-go/internal/constants"
	"github.com/kapu/bookmood-go/internal/domain"
	"github.com/kapu/bookmood-go/internal/util"
	"github.com/kapu/bookmood-go/pkg/errors"
	"go.uber.org/zap"
)

// Selector fallback chains for the external review source. The markup is
// unstable across layouts, so each field is located by trying selectors in
// order and accepting the first usable match.
var (
	bookLinkSelectors = []string{
		"a.bookTitle",
		`a[href*="/book/show/"]`,
		".bookTitle a",
	}
	reviewContainerSelectors = []string{
		"div.review",
		"article.ReviewCard",
		`div[data-testid="review"]`,
		".ReviewText",
	}
	reviewTextSelectors = []string{
		".reviewText",
		".readable",
		`[data-testid="review-text"]`,
		".TruncatedContent",
		`span[style*="display:none"]`, // hidden span carrying the untruncated text
	}
	ratingSelectors = []string{
		".staticStars",
		`[data-testid="rating"]`,
		".rating .stars",
		`span[title*="star"]`,
	}
	helpfulVotesSelectors = []string{
		".likesCount",
		`[data-testid="likes-count"]`,
		".helpfulVotes",
	}
)

var firstIntPattern = regexp.MustCompile(`(\d+)`)

// CollectorService locates a book on the external review source and
// extracts a bounded set of raw reviews. All outbound requests go through
// one rate-limited, retrying HTTP path guarded by a circuit breaker.
type CollectorService struct {
	httpClient     *http.Client
	cfg            config.GoodreadsConfig
	breaker        *util.CircuitBreaker
	retryBaseDelay time.Duration
	rng            *rand.Rand
	rngMu          sync.Mutex
	logger         *zap.Logger
}

func NewCollectorService(cfg config.GoodreadsConfig, rng *rand.Rand, logger *zap.Logger) *CollectorService {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &CollectorService{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		cfg: cfg,
		breaker: util.NewCircuitBreaker(
			constants.CircuitBreakerConfig.FailureThreshold,
			constants.CircuitBreakerConfig.ResetTimeout,
			logger,
		),
		retryBaseDelay: constants.RetryConfig.BaseDelay,
		rng:            rng,
		logger:         logger,
	}
}

// FindReviews runs the full collection workflow: search for the book, then
// scrape its reviews. A blank title is a validation error and never reaches
// the network. A book that cannot be located yields an empty slice, not an
// error; only an unreachable source after retries surfaces as NetworkError.
func (c *CollectorService) FindReviews(ctx context.Context, title, author string, maxReviews int) ([]domain.Review, error) {
	if strings.TrimSpace(title) == "" {
		return nil, errors.NewValidationError("book title cannot be empty", "title", title)
	}
	if maxReviews <= 0 {
		maxReviews = c.cfg.MaxReviews
	}

	c.logger.Info("Starting review collection",
		zap.String("title", title),
		zap.String("author", author),
		zap.Int("max_reviews", maxReviews),
	)

	bookURL, err := c.searchBook(ctx, title, author)
	if err != nil {
		return nil, err
	}
	if bookURL == "" {
		c.logger.Warn("Book not found",
			zap.String("title", title),
			zap.String("author", author),
		)
		return []domain.Review{}, nil
	}

	reviews, err := c.scrapeReviews(ctx, bookURL, maxReviews)
	if err != nil {
		return nil, err
	}

	if len(reviews) > 0 {
		var totalLength int
		for _, r := range reviews {
			totalLength += r.Length
		}
		c.logger.Info("Collection complete",
			zap.Int("reviews", len(reviews)),
			zap.Int("avg_length", totalLength/len(reviews)),
		)
	} else {
		c.logger.Warn("No reviews collected", zap.String("book_url", bookURL))
	}

	return reviews, nil
}

// searchBook returns the book page URL, or "" when no result matched.
func (c *CollectorService) searchBook(ctx context.Context, title, author string) (string, error) {
	query := strings.TrimSpace(strings.TrimSpace(title) + " " + strings.TrimSpace(author))
	searchURL := fmt.Sprintf("%s/search?q=%s", c.cfg.BaseURL, url.QueryEscape(query))

	c.logger.Info("Searching for book", zap.String("query", query))

	doc, err := c.fetchDocument(ctx, searchURL)
	if err != nil {
		return "", err
	}

	for _, selector := range bookLinkSelectors {
		link := doc.Find(selector).First()
		if link.Length() == 0 {
			continue
		}
		href, ok := link.Attr("href")
		if !ok || href == "" {
			continue
		}

		bookURL := c.resolveURL(href)
		c.logger.Info("Found book URL",
			zap.String("book_url", bookURL),
			zap.String("selector", selector),
		)
		return bookURL, nil
	}

	return "", nil
}

func (c *CollectorService) scrapeReviews(ctx context.Context, bookURL string, maxReviews int) ([]domain.Review, error) {
	c.logger.Info("Scraping reviews", zap.String("book_url", bookURL))

	doc, err := c.fetchDocument(ctx, bookURL)
	if err != nil {
		return nil, err
	}

	var containers *goquery.Selection
	for _, selector := range reviewContainerSelectors {
		found := doc.Find(selector)
		if found.Length() > 0 {
			containers = found
			c.logger.Debug("Found review containers",
				zap.String("selector", selector),
				zap.Int("count", found.Length()),
			)
			break
		}
	}

	reviews := make([]domain.Review, 0, maxReviews)
	if containers == nil {
		c.logger.Warn("No review containers matched any selector", zap.String("book_url", bookURL))
		return reviews, nil
	}

	parseErrors := 0
	containers.EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if i >= maxReviews {
			return false
		}

		review, ok := c.extractReview(sel)
		if !ok {
			parseErrors++
			return true
		}
		if review.Length < c.cfg.MinReviewLength {
			c.logger.Debug("Dropping short review", zap.Int("length", review.Length))
			return true
		}

		reviews = append(reviews, review)
		return true
	})

	c.logger.Info("Scraper completed",
		zap.Int("reviews", len(reviews)),
		zap.Int("parse_errors", parseErrors),
	)

	return reviews, nil
}

// extractReview pulls text, rating and helpfulness out of one review
// container. A failure here skips the review, never the batch.
func (c *CollectorService) extractReview(sel *goquery.Selection) (domain.Review, bool) {
	var text string
	for _, selector := range reviewTextSelectors {
		elem := sel.Find(selector).First()
		if elem.Length() == 0 {
			continue
		}
		candidate := strings.TrimSpace(elem.Text())
		if candidate != "" {
			text = candidate
		}
		if len(text) > 20 {
			break
		}
	}
	if text == "" {
		text = strings.TrimSpace(sel.Text())
	}
	if text == "" {
		return domain.Review{}, false
	}

	var rating *int
	for _, selector := range ratingSelectors {
		elem := sel.Find(selector).First()
		if elem.Length() == 0 {
			continue
		}
		ratingText, _ := elem.Attr("title")
		if ratingText == "" {
			ratingText = elem.Text()
		}
		if value, ok := parseFirstInt(ratingText); ok {
			rating = &value
			break
		}
	}

	helpfulVotes := 0
	for _, selector := range helpfulVotesSelectors {
		elem := sel.Find(selector).First()
		if elem.Length() == 0 {
			continue
		}
		if value, ok := parseFirstInt(elem.Text()); ok {
			helpfulVotes = value
			break
		}
	}

	return domain.NewReview(text, rating, helpfulVotes), true
}

// fetchDocument performs one rate-limited GET with retries, returning the
// parsed document. Statuses 429/5xx and transport errors are retried with
// exponential backoff; when the cap is exhausted the NetworkError carries
// the total attempt count.
func (c *CollectorService) fetchDocument(ctx context.Context, requestURL string) (*goquery.Document, error) {
	if !c.breaker.Allow() {
		return nil, errors.NewNetworkError("review source circuit open", requestURL, 0, nil)
	}

	if err := c.rateLimit(ctx); err != nil {
		return nil, err
	}

	var lastErr error
	attempts := 0
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		attempts++

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return nil, errors.NewNetworkError("failed to build request", requestURL, attempts, err)
		}
		req.Header.Set("User-Agent", c.cfg.UserAgent)
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "en-US,en;q=0.5")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			c.breaker.RecordFailure()
			c.logger.Warn("Request failed",
				zap.String("url", requestURL),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			if err := c.backoff(ctx, attempt); err != nil {
				return nil, err
			}
			continue
		}

		if constants.RetryableStatuses[resp.StatusCode] {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("server returned status %d", resp.StatusCode)
			c.breaker.RecordFailure()
			c.logger.Warn("Retryable status",
				zap.String("url", requestURL),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
			)
			if err := c.backoff(ctx, attempt); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			c.breaker.RecordFailure()
			return nil, errors.NewNetworkError(
				fmt.Sprintf("unexpected status %d", resp.StatusCode), requestURL, attempts, nil)
		}

		doc, err := goquery.NewDocumentFromReader(resp.Body)
		resp.Body.Close()
		if err != nil {
			c.breaker.RecordFailure()
			return nil, errors.NewNetworkError("failed to read response body", requestURL, attempts, err)
		}

		c.breaker.RecordSuccess()
		return doc, nil
	}

	return nil, errors.NewNetworkError("request failed after retries", requestURL, attempts, lastErr)
}

// rateLimit sleeps for a random interval within [MinDelay, MaxDelay] before
// every outbound request, to behave as a considerate client.
func (c *CollectorService) rateLimit(ctx context.Context) error {
	if c.cfg.MaxDelay <= 0 {
		return nil
	}

	spread := c.cfg.MaxDelay - c.cfg.MinDelay
	delay := c.cfg.MinDelay
	if spread > 0 {
		c.rngMu.Lock()
		delay += time.Duration(c.rng.Int63n(int64(spread)))
		c.rngMu.Unlock()
	}

	c.logger.Debug("Rate limiting", zap.Duration("delay", delay))
	return sleepContext(ctx, delay)
}

func (c *CollectorService) backoff(ctx context.Context, attempt int) error {
	if attempt >= c.cfg.MaxRetries {
		return nil // retry cap reached, caller reports the failure
	}

	delay := c.retryBaseDelay * time.Duration(1<<attempt)
	if constants.RetryConfig.Jitter > 0 {
		c.rngMu.Lock()
		delay += time.Duration(c.rng.Int63n(int64(constants.RetryConfig.Jitter)))
		c.rngMu.Unlock()
	}

	return sleepContext(ctx, delay)
}

func (c *CollectorService) resolveURL(href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if parsed.IsAbs() {
		return href
	}

	base, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return href
	}
	return base.ResolveReference(parsed).String()
}

func parseFirstInt(s string) (int, bool) {
	match := firstIntPattern.FindString(s)
	if match == "" {
		return 0, false
	}
	value, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return value, true
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
