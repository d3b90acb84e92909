package session

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pavelanni/pyquiz/internal/i18n"
	"github.com/pavelanni/pyquiz/internal/model"
)

const labelWidth = 20

// Completion returns the one-line completion message. It also serves as
// the subject of the results email.
func Completion(ctx context.Context, r model.ResultSummary) string {
	if r.Completed() {
		return i18n.Td(ctx, "CompletedQuiz", map[string]any{"Name": r.Participant})
	}
	return i18n.Tpd(ctx, "AttendedQuestions", r.Attempted, map[string]any{"Name": r.Participant})
}

// Report renders the results table.
func Report(ctx context.Context, r model.ResultSummary) string {
	var sb strings.Builder
	title := i18n.T(ctx, "ResultsTitle")
	fmt.Fprintf(&sb, "\n\t\t%s\n\t\t%s\n", title, strings.Repeat("-", utf8.RuneCountInString(title)))

	row := func(labelID string, value any) {
		fmt.Fprintf(&sb, "%-*s: %v\n", labelWidth, i18n.T(ctx, labelID), value)
	}
	row("LabelName", r.Participant)
	row("LabelAttended", i18n.Td(ctx, "AttendedOutOf", map[string]any{
		"Attempted": r.Attempted,
		"Total":     r.Total,
	}))
	row("LabelCorrect", r.Correct)
	row("LabelWrong", r.Wrong)
	row("LabelSkipped", r.Skipped)
	row("LabelAverage", fmt.Sprintf("%.2f%%", r.AverageScore))
	row("LabelAuthor", model.Author)
	row("LabelCredits", model.Credits)
	return sb.String()
}

// ShowResults prints the completion message followed by the report.
func (e *Engine) ShowResults(ctx context.Context, r model.ResultSummary) {
	e.display.Type(Completion(ctx, r), speedPrompt)
	e.display.Type(Report(ctx, r), speedReport)
}

// Farewell clears the screen and prints the closing message.
func (e *Engine) Farewell(ctx context.Context) {
	e.display.Clear()
	e.Header(ctx)
	e.display.Type(i18n.T(ctx, "ThankYou")+"\n", speedPrompt)
}
