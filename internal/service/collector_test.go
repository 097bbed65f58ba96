package service

import (
	"context"
	goerrors "errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kapu/bookmood-go/internal/config"
	"github.com/kapu/bookmood-go/internal/constants"
	pkgerrors "github.com/kapu/bookmood-go/pkg/errors"
	"go.uber.org/zap"
)

const longReviewText = "This novel completely swept me away with its rich characters and the quiet, aching beauty of its prose. I finished it in two sittings."

func testCollectorConfig(baseURL string) config.GoodreadsConfig {
	return config.GoodreadsConfig{
		BaseURL:         baseURL,
		UserAgent:       "bookmood-test/1.0",
		MinDelay:        0,
		MaxDelay:        0,
		MaxRetries:      3,
		Timeout:         5 * time.Second,
		MinReviewLength: 50,
		MaxReviews:      15,
	}
}

func newTestCollector(baseURL string) *CollectorService {
	c := NewCollectorService(testCollectorConfig(baseURL), rand.New(rand.NewSource(1)), zap.NewNop())
	c.retryBaseDelay = time.Millisecond
	return c
}

func disableRetryJitter(t *testing.T) {
	t.Helper()
	saved := constants.RetryConfig.Jitter
	constants.RetryConfig.Jitter = 0
	t.Cleanup(func() { constants.RetryConfig.Jitter = saved })
}

func searchPage(bookHref string) string {
	if bookHref == "" {
		return `<html><body><div class="noResults">No results.</div></body></html>`
	}
	return fmt.Sprintf(
		`<html><body><a class="bookTitle" href=%q>The Test Book</a></body></html>`, bookHref)
}

func TestFindReviewsBlankTitle(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	collector := newTestCollector(server.URL)

	_, err := collector.FindReviews(context.Background(), "   ", "Someone", 5)
	if err == nil {
		t.Fatal("expected validation error for blank title")
	}

	var validationErr *pkgerrors.ValidationError
	if !goerrors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	if requests != 0 {
		t.Fatalf("blank title must not reach the network, saw %d requests", requests)
	}
}

func TestFindReviewsHappyPath(t *testing.T) {
	bookPage := fmt.Sprintf(`<html><body>
		<div class="review">
			<div class="reviewText">%s</div>
			<span class="staticStars" title="4 of 5 stars"></span>
			<div class="likesCount">12 likes</div>
		</div>
		<div class="review">
			<div class="reviewText">Too short.</div>
		</div>
		<div class="review">
			<div class="reviewText">%s Another reader agreeing at considerable length here.</div>
		</div>
	</body></html>`, longReviewText, longReviewText)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/search"):
			fmt.Fprint(w, searchPage("/book/show/123"))
		case r.URL.Path == "/book/show/123":
			fmt.Fprint(w, bookPage)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	collector := newTestCollector(server.URL)

	reviews, err := collector.FindReviews(context.Background(), "The Test Book", "Someone", 10)
	if err != nil {
		t.Fatalf("FindReviews failed: %v", err)
	}
	if len(reviews) != 2 {
		t.Fatalf("expected 2 reviews after length filtering, got %d", len(reviews))
	}

	first := reviews[0]
	if first.Text != longReviewText {
		t.Fatalf("unexpected review text: %q", first.Text)
	}
	if first.Rating == nil || *first.Rating != 4 {
		t.Fatalf("expected rating 4, got %v", first.Rating)
	}
	if first.HelpfulVotes != 12 {
		t.Fatalf("expected 12 helpful votes, got %d", first.HelpfulVotes)
	}
	if first.WordCount == 0 || first.Length != len(longReviewText) {
		t.Fatalf("unexpected derived fields: length=%d words=%d", first.Length, first.WordCount)
	}

	second := reviews[1]
	if second.Rating != nil {
		t.Fatalf("expected no rating on unrated review, got %v", *second.Rating)
	}
	if second.HelpfulVotes != 0 {
		t.Fatalf("expected 0 helpful votes, got %d", second.HelpfulVotes)
	}
}

func TestFindReviewsRespectsMaxReviews(t *testing.T) {
	var pages strings.Builder
	for i := 0; i < 5; i++ {
		fmt.Fprintf(&pages, `<div class="review"><div class="reviewText">%s Review number %d.</div></div>`, longReviewText, i)
	}
	bookPage := "<html><body>" + pages.String() + "</body></html>"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/search") {
			fmt.Fprint(w, searchPage("/book/show/9"))
			return
		}
		fmt.Fprint(w, bookPage)
	}))
	defer server.Close()

	collector := newTestCollector(server.URL)

	reviews, err := collector.FindReviews(context.Background(), "The Test Book", "", 2)
	if err != nil {
		t.Fatalf("FindReviews failed: %v", err)
	}
	if len(reviews) != 2 {
		t.Fatalf("expected collection bounded at 2 reviews, got %d", len(reviews))
	}
}

func TestFindReviewsBookNotFound(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, searchPage(""))
	}))
	defer server.Close()

	collector := newTestCollector(server.URL)

	reviews, err := collector.FindReviews(context.Background(), "Nonexistent", "Nobody", 5)
	if err != nil {
		t.Fatalf("not-found must not be an error, got %v", err)
	}
	if len(reviews) != 0 {
		t.Fatalf("expected empty result for unfound book, got %d reviews", len(reviews))
	}
	if requests != 1 {
		t.Fatalf("expected a single search request, saw %d", requests)
	}
}

func TestFindReviewsRetriesExhausted(t *testing.T) {
	disableRetryJitter(t)

	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	collector := newTestCollector(server.URL)

	_, err := collector.FindReviews(context.Background(), "The Test Book", "", 5)
	if err == nil {
		t.Fatal("expected network error after exhausting retries")
	}

	var netErr *pkgerrors.NetworkError
	if !goerrors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %T: %v", err, err)
	}
	if netErr.Attempts != 4 {
		t.Fatalf("expected 4 attempts (initial + 3 retries), got %d", netErr.Attempts)
	}
	if requests != 4 {
		t.Fatalf("expected 4 requests on the wire, saw %d", requests)
	}
}

func TestFindReviewsContextCancelledDuringBackoff(t *testing.T) {
	disableRetryJitter(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	collector := newTestCollector(server.URL)
	collector.retryBaseDelay = time.Minute // park the collector in backoff

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := collector.FindReviews(ctx, "The Test Book", "", 5)
	if !goerrors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("cancellation not honored promptly, took %v", elapsed)
	}
}

func TestFindReviewsNonRetryableStatusFailsFast(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	collector := newTestCollector(server.URL)

	_, err := collector.FindReviews(context.Background(), "The Test Book", "", 5)
	var netErr *pkgerrors.NetworkError
	if !goerrors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %T: %v", err, err)
	}
	if netErr.Attempts != 1 {
		t.Fatalf("403 must not be retried, got %d attempts", netErr.Attempts)
	}
	if requests != 1 {
		t.Fatalf("expected exactly 1 request, saw %d", requests)
	}
}

func TestScrapeReviewsSelectorFallbacks(t *testing.T) {
	// Modern layout: ReviewCard containers, TruncatedContent text,
	// data-testid rating. None of the primary selectors match.
	bookPage := fmt.Sprintf(`<html><body>
		<article class="ReviewCard">
			<div class="TruncatedContent">%s</div>
			<span data-testid="rating">Rating 5 out of 5</span>
			<span data-testid="likes-count">3 people found this helpful</span>
		</article>
		<article class="ReviewCard">
			<div class="TruncatedContent">%s</div>
		</article>
	</body></html>`, longReviewText, longReviewText)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/search") {
			fmt.Fprint(w, searchPage(`/book/show/55`))
			return
		}
		fmt.Fprint(w, bookPage)
	}))
	defer server.Close()

	collector := newTestCollector(server.URL)

	reviews, err := collector.FindReviews(context.Background(), "The Test Book", "", 10)
	if err != nil {
		t.Fatalf("FindReviews failed: %v", err)
	}
	if len(reviews) != 2 {
		t.Fatalf("expected 2 reviews via fallback selectors, got %d", len(reviews))
	}
	if reviews[0].Rating == nil || *reviews[0].Rating != 5 {
		t.Fatalf("expected rating 5 from data-testid selector, got %v", reviews[0].Rating)
	}
	if reviews[0].HelpfulVotes != 3 {
		t.Fatalf("expected 3 helpful votes, got %d", reviews[0].HelpfulVotes)
	}
}

func TestExtractReviewHiddenSpanFallback(t *testing.T) {
	// Truncated layouts park the complete text in a display:none span.
	bookPage := fmt.Sprintf(`<html><body>
		<div class="review">
			<span style="display:none">%s</span>
			<div class="actionLinks">Like - Comment - Share</div>
		</div>
	</body></html>`, longReviewText)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/search") {
			fmt.Fprint(w, searchPage("/book/show/7"))
			return
		}
		fmt.Fprint(w, bookPage)
	}))
	defer server.Close()

	collector := newTestCollector(server.URL)

	reviews, err := collector.FindReviews(context.Background(), "The Test Book", "", 5)
	if err != nil {
		t.Fatalf("FindReviews failed: %v", err)
	}
	if len(reviews) != 1 {
		t.Fatalf("expected 1 review from hidden span, got %d", len(reviews))
	}
	if reviews[0].Text != longReviewText {
		t.Fatalf("unexpected review text: %q", reviews[0].Text)
	}
}

func TestParseFirstInt(t *testing.T) {
	cases := []struct {
		in    string
		value int
		ok    bool
	}{
		{"4 of 5 stars", 4, true},
		{"liked by 128 people", 128, true},
		{"no digits here", 0, false},
		{"", 0, false},
	}

	for _, tc := range cases {
		value, ok := parseFirstInt(tc.in)
		if value != tc.value || ok != tc.ok {
			t.Errorf("parseFirstInt(%q) = (%d, %v), want (%d, %v)", tc.in, value, ok, tc.value, tc.ok)
		}
	}
}
