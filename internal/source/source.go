package source

import (
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pavelanni/pyquiz/internal/model"
)

// DefaultURL is the mock test page the quiz questions are scraped from.
const DefaultURL = "https://www.tutorialspoint.com/python/python_mock_test.htm?min=1&max=100"

const (
	indexDelim  = "-"
	answerDelim = ":"
	userAgent   = "pyquiz/1.0 (+https://github.com/pavelanni/pyquiz)"
)

// Policy decides what happens to a question block that cannot be parsed.
type Policy int

const (
	// SkipMalformed logs and drops bad blocks.
	SkipMalformed Policy = iota
	// AbortOnMalformed fails the whole load on the first bad block.
	AbortOnMalformed
)

// Fetcher downloads the question page.
type Fetcher struct {
	URL    string
	Client *http.Client
}

// NewFetcher creates a fetcher with a bounded HTTP timeout.
func NewFetcher(url string) *Fetcher {
	if url == "" {
		url = DefaultURL
	}
	return &Fetcher{
		URL:    url,
		Client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch performs one GET request. The caller must close the returned body.
func (f *Fetcher) Fetch(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", model.ErrNetworkFailure, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", model.ErrNetworkFailure, f.URL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: GET %s: HTTP %d", model.ErrNetworkFailure, f.URL, resp.StatusCode)
	}
	return resp.Body, nil
}

// Records lazily parses the question blocks of a page. Every block yields
// either a record or an error wrapping model.ErrMalformedSource; iteration
// continues past bad blocks until the consumer stops.
func Records(r io.Reader) iter.Seq2[model.QuestionRecord, error] {
	return func(yield func(model.QuestionRecord, error) bool) {
		doc, err := goquery.NewDocumentFromReader(r)
		if err != nil {
			yield(model.QuestionRecord{}, fmt.Errorf("%w: parse page: %v", model.ErrMalformedSource, err))
			return
		}
		blocks := doc.Find("div.QA")
		for i := range blocks.Length() {
			rec, err := parseBlock(blocks.Eq(i))
			if err != nil {
				err = fmt.Errorf("%w: question block %d: %v", model.ErrMalformedSource, i+1, err)
			}
			if !yield(rec, err) {
				return
			}
		}
	}
}

func parseBlock(s *goquery.Selection) (model.QuestionRecord, error) {
	var rec model.QuestionRecord

	p := s.Find("p").First()
	if p.Length() == 0 {
		return rec, fmt.Errorf("missing question paragraph")
	}
	question, err := afterDelim(p.Text(), indexDelim)
	if err != nil {
		return rec, fmt.Errorf("question: %w", err)
	}
	rec.Question = question

	anchors := s.Find("a")
	if anchors.Length() == 0 {
		return rec, fmt.Errorf("no options")
	}
	if anchors.Length() > model.MaxOptions {
		return rec, fmt.Errorf("%d options, at most %d supported", anchors.Length(), model.MaxOptions)
	}
	for i := range anchors.Length() {
		opt, err := afterDelim(anchors.Eq(i).Text(), indexDelim)
		if err != nil {
			return rec, fmt.Errorf("option %d: %w", i+1, err)
		}
		rec.Options = append(rec.Options, opt)
	}

	headings := s.Find("h3")
	if headings.Length() < 2 {
		return rec, fmt.Errorf("expected answer and explanation headings, found %d", headings.Length())
	}
	ans, err := afterDelim(headings.First().Text(), answerDelim)
	if err != nil {
		return rec, fmt.Errorf("answer: %w", err)
	}
	letter, err := model.ParseLetter(ans)
	if err != nil {
		return rec, fmt.Errorf("answer: %w", err)
	}
	rec.Answer = letter

	expl := headings.Eq(1).NextAllFiltered("p").First()
	if expl.Length() == 0 {
		return rec, fmt.Errorf("missing explanation paragraph")
	}
	rec.Explanation = strings.TrimSpace(expl.Text())

	if err := rec.Validate(); err != nil {
		return rec, err
	}
	return rec, nil
}

// afterDelim returns the trimmed text following the first delimiter.
func afterDelim(text, delim string) (string, error) {
	_, rest, ok := strings.Cut(text, delim)
	if !ok {
		return "", fmt.Errorf("no %q delimiter in %q", delim, strings.TrimSpace(text))
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return "", fmt.Errorf("empty text after %q", delim)
	}
	return rest, nil
}

// Collect drains a record sequence under the given policy.
func Collect(seq iter.Seq2[model.QuestionRecord, error], policy Policy) ([]model.QuestionRecord, error) {
	var records []model.QuestionRecord
	skipped := 0
	for rec, err := range seq {
		if err != nil {
			if policy == AbortOnMalformed {
				return nil, err
			}
			skipped++
			slog.Warn("skipping malformed question", "error", err)
			continue
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no usable questions found (%d malformed)", model.ErrMalformedSource, skipped)
	}
	if skipped > 0 {
		slog.Info("dropped malformed questions", "skipped", skipped, "kept", len(records))
	}
	return records, nil
}

// Source fetches and parses the question page.
type Source struct {
	fetcher *Fetcher
	policy  Policy
}

// New creates a Source.
func New(fetcher *Fetcher, policy Policy) *Source {
	return &Source{fetcher: fetcher, policy: policy}
}

// Load fetches the page and returns its questions in page order.
func (s *Source) Load(ctx context.Context) ([]model.QuestionRecord, error) {
	body, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	records, err := Collect(Records(body), s.policy)
	if err != nil {
		return nil, err
	}
	slog.Info("loaded questions", "url", s.fetcher.URL, "count", len(records))
	return records, nil
}
