package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pavelanni/pyquiz/internal/model"
)

const goodBlock = `
<div class="QA">
  <p>Q 1 - Which of the following is correct about Python?</p>
  <a href="#">A - It supports automatic garbage collection.</a>
  <a href="#">B - It can be easily integrated with C, C++, COM, ActiveX, CORBA, and Java.</a>
  <a href="#">C - Both of the above.</a>
  <a href="#">D - None of the above.</a>
  <h3>Answer : C</h3>
  <h3>Explanation</h3>
  <p>Python supports automatic garbage collection and integrates with C.</p>
</div>`

const secondBlock = `
<div class="QA">
  <p>Q 2 - What is the output of len([1, 2, 3])?</p>
  <a href="#">A - 2</a>
  <a href="#">B - 3</a>
  <h3>Answer : b</h3>
  <h3>Explanation</h3>
  <div>unrelated</div>
  <p> len returns the number of items. </p>
</div>`

const noDelimBlock = `
<div class="QA">
  <p>Question without an index</p>
  <a href="#">A - x</a>
  <h3>Answer : A</h3>
  <h3>Explanation</h3>
  <p>none</p>
</div>`

const noExplanationBlock = `
<div class="QA">
  <p>Q 9 - Lonely?</p>
  <a href="#">A - yes</a>
  <h3>Answer : A</h3>
</div>`

const answerOutOfRangeBlock = `
<div class="QA">
  <p>Q 7 - Pick one</p>
  <a href="#">A - one</a>
  <a href="#">B - two</a>
  <h3>Answer : D</h3>
  <h3>Explanation</h3>
  <p>D does not exist.</p>
</div>`

func page(blocks ...string) string {
	return "<html><body>" + strings.Join(blocks, "\n") + "</body></html>"
}

func TestRecordsParsesBlocks(t *testing.T) {
	var got []model.QuestionRecord
	for rec, err := range Records(strings.NewReader(page(goodBlock, secondBlock))) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got = append(got, rec)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}

	first := got[0]
	if first.Question != "Which of the following is correct about Python?" {
		t.Errorf("question = %q", first.Question)
	}
	if len(first.Options) != 4 || first.Options[2] != "Both of the above." {
		t.Errorf("options = %q", first.Options)
	}
	if first.Options[1] != "It can be easily integrated with C, C++, COM, ActiveX, CORBA, and Java." {
		t.Errorf("option B = %q", first.Options[1])
	}
	if first.Answer != model.LetterC {
		t.Errorf("answer = %q, want C", first.Answer)
	}
	if !strings.HasPrefix(first.Explanation, "Python supports") {
		t.Errorf("explanation = %q", first.Explanation)
	}

	second := got[1]
	if second.Answer != model.LetterB {
		t.Errorf("lowercase answer letter not normalized: %q", second.Answer)
	}
	if second.Explanation != "len returns the number of items." {
		t.Errorf("explanation sibling = %q", second.Explanation)
	}
}

func TestRecordsReportsMalformedBlocks(t *testing.T) {
	tests := []struct {
		name  string
		block string
	}{
		{"missing delimiter", noDelimBlock},
		{"missing explanation", noExplanationBlock},
		{"answer out of range", answerOutOfRangeBlock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var errs []error
			for _, err := range Records(strings.NewReader(page(tt.block))) {
				errs = append(errs, err)
			}
			if len(errs) != 1 || !errors.Is(errs[0], model.ErrMalformedSource) {
				t.Fatalf("expected one ErrMalformedSource, got %v", errs)
			}
		})
	}
}

func TestRecordsStopsWhenConsumerStops(t *testing.T) {
	n := 0
	for range Records(strings.NewReader(page(goodBlock, goodBlock, goodBlock))) {
		n++
		break
	}
	if n != 1 {
		t.Errorf("iterated %d times after break", n)
	}
}

func TestCollectPolicies(t *testing.T) {
	html := page(goodBlock, noDelimBlock, secondBlock)

	recs, err := Collect(Records(strings.NewReader(html)), SkipMalformed)
	if err != nil {
		t.Fatalf("skip policy: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("skip policy kept %d records, want 2", len(recs))
	}

	_, err = Collect(Records(strings.NewReader(html)), AbortOnMalformed)
	if !errors.Is(err, model.ErrMalformedSource) {
		t.Errorf("abort policy error = %v, want ErrMalformedSource", err)
	}
}

func TestCollectNoQuestions(t *testing.T) {
	_, err := Collect(Records(strings.NewReader("<html><body><p>redesigned</p></body></html>")), SkipMalformed)
	if !errors.Is(err, model.ErrMalformedSource) {
		t.Errorf("expected ErrMalformedSource for a page without questions, got %v", err)
	}
}

func TestSourceLoad(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing User-Agent header")
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(page(goodBlock, secondBlock)))
	}))
	defer srv.Close()

	src := New(NewFetcher(srv.URL), AbortOnMalformed)
	recs, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("expected 2 records, got %d", len(recs))
	}
}

func TestSourceLoadHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New(NewFetcher(srv.URL), SkipMalformed).Load(context.Background())
	if !errors.Is(err, model.ErrNetworkFailure) {
		t.Errorf("expected ErrNetworkFailure, got %v", err)
	}
}

func TestSourceLoadConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(NewFetcher(url), SkipMalformed).Load(context.Background())
	if !errors.Is(err, model.ErrNetworkFailure) {
		t.Errorf("expected ErrNetworkFailure, got %v", err)
	}
}

func TestNewFetcherDefaultURL(t *testing.T) {
	if f := NewFetcher(""); f.URL != DefaultURL {
		t.Errorf("URL = %q, want default", f.URL)
	}
}
