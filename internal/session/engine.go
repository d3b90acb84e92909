// Package session runs the interactive quiz loop.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/pavelanni/pyquiz/internal/console"
	"github.com/pavelanni/pyquiz/internal/i18n"
	"github.com/pavelanni/pyquiz/internal/model"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrInputClosed is returned when the input stream ends while a prompt is
// waiting for a line.
var ErrInputClosed = errors.New("input closed")

// Typewriter speeds for the different kinds of text.
const (
	speedPrompt      = console.DefaultSpeed
	speedQuestion    = 6
	speedOption      = 8
	speedExplainHit  = 5
	speedExplainMiss = 6
	speedReport      = 6
)

var (
	yesTokens  = map[string]bool{"y": true, "yes": true}
	noTokens   = map[string]bool{"n": true, "no": true}
	skipTokens = map[string]bool{"s": true, "skip": true}
)

// Explainer produces an explanation for a question that has none.
type Explainer interface {
	Explain(ctx context.Context, q model.QuestionRecord) (string, error)
}

// Engine drives one participant through a list of questions.
type Engine struct {
	display   *console.Display
	in        *bufio.Reader
	explainer Explainer
}

// NewEngine creates an engine reading answers from in. explainer may be nil.
func NewEngine(display *console.Display, in io.Reader, explainer Explainer) *Engine {
	return &Engine{
		display:   display,
		in:        bufio.NewReader(in),
		explainer: explainer,
	}
}

// readLine returns the next input line without its line terminator.
func (e *Engine) readLine() (string, error) {
	line, err := e.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrInputClosed
		}
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (e *Engine) readToken() (string, error) {
	line, err := e.readLine()
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(line)), nil
}

// Header prints the application title underlined with dashes.
func (e *Engine) Header(ctx context.Context) {
	title := i18n.T(ctx, "AppTitle")
	e.display.Println("\t\t" + title)
	e.display.Println("\t\t" + strings.Repeat("-", utf8.RuneCountInString(title)) + "\n")
}

// AskName prompts for the participant's name and returns it title-cased.
func (e *Engine) AskName(ctx context.Context) (string, error) {
	e.display.Type(i18n.T(ctx, "EnterName"), speedPrompt)
	line, err := e.readLine()
	if err != nil {
		return "", err
	}
	name := cases.Title(language.Und).String(strings.TrimSpace(line))
	e.display.Clear()
	return name, nil
}

// Confirm shows the yes/no prompt msgID until the answer is one of y, yes,
// n or no.
func (e *Engine) Confirm(ctx context.Context, msgID string) (bool, error) {
	e.display.Type(i18n.T(ctx, msgID), speedPrompt)
	for {
		tok, err := e.readToken()
		if err != nil {
			return false, err
		}
		switch {
		case yesTokens[tok]:
			return true, nil
		case noTokens[tok]:
			return false, nil
		}
		e.display.Type(i18n.T(ctx, "InvalidYesNo"), speedPrompt)
	}
}

// WaitForEnter blocks until a line is entered. A closed input counts as
// Enter.
func (e *Engine) WaitForEnter(ctx context.Context) error {
	e.display.Type("\n"+i18n.T(ctx, "PressEnter"), speedPrompt)
	if _, err := e.readLine(); err != nil && !errors.Is(err, ErrInputClosed) {
		return err
	}
	return nil
}

// answer is a validated reply to a question prompt.
type answer struct {
	letter model.Letter
	skip   bool
}

func (e *Engine) askAnswer(ctx context.Context, q model.QuestionRecord) (answer, error) {
	choices := q.Choices()
	accepted := make(map[string]model.Letter, len(choices))
	names := make([]string, 0, len(choices))
	for _, l := range choices {
		accepted[strings.ToLower(string(l))] = l
		names = append(names, string(l))
	}
	data := map[string]any{"Choices": strings.Join(names, ", ")}

	e.display.Print("\n" + i18n.Td(ctx, "AnswerPrompt", data))
	for {
		tok, err := e.readToken()
		if err != nil {
			return answer{}, err
		}
		if skipTokens[tok] {
			return answer{skip: true}, nil
		}
		if l, ok := accepted[tok]; ok {
			return answer{letter: l}, nil
		}
		e.display.Type(i18n.Td(ctx, "InvalidAnswer", data), speedPrompt)
	}
}

func (e *Engine) present(ctx context.Context, st *model.SessionState, q model.QuestionRecord) {
	e.Header(ctx)
	e.display.Println(i18n.Td(ctx, "QuestionNofM", map[string]any{
		"Number": st.Position(),
		"Total":  st.Total,
	}))
	e.display.Type(q.Question+"\n", speedQuestion)
	e.display.Println("")
	for i, opt := range q.Options {
		l, ok := model.LetterAt(i)
		if !ok {
			break
		}
		e.display.Type(fmt.Sprintf("%s. %s\n", l, opt), speedOption)
	}
}

func (e *Engine) explanation(ctx context.Context, q model.QuestionRecord) string {
	if text := strings.TrimSpace(q.Explanation); text != "" {
		return q.Explanation
	}
	if e.explainer != nil {
		text, err := e.explainer.Explain(ctx, q)
		if err == nil && strings.TrimSpace(text) != "" {
			return text
		}
		if err != nil {
			slog.Warn("explanation fallback failed", "error", err)
		}
	}
	return i18n.T(ctx, "NoExplanation")
}

// Run asks every question in order and returns the result. The loop ends
// early when the participant declines to continue or the input closes;
// questions never reached are not counted as attempted or skipped.
func (e *Engine) Run(ctx context.Context, participant string, questions []model.QuestionRecord) (model.ResultSummary, error) {
	st := model.NewSessionState(participant, questions)
	err := e.loop(ctx, st)
	e.display.Clear()
	if errors.Is(err, ErrInputClosed) {
		slog.Info("input closed, ending session early", "position", st.Position())
		err = nil
	}
	return st.Summary(), err
}

func (e *Engine) loop(ctx context.Context, st *model.SessionState) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		q, ok := st.Next()
		if !ok {
			return nil
		}
		e.present(ctx, st, q)

		ans, err := e.askAnswer(ctx, q)
		if err != nil {
			return err
		}
		if ans.skip {
			st.RecordSkip()
			slog.Debug("question skipped", "position", st.Position())
			e.display.Clear()
			continue
		}

		correct := ans.letter == q.Answer
		st.RecordAnswer(correct)
		slog.Debug("question answered", "position", st.Position(), "correct", correct)

		if correct {
			e.display.Type(i18n.T(ctx, "CorrectAnswer")+"\n\n", speedPrompt)
			show, err := e.Confirm(ctx, "NeedExplanation")
			if err != nil {
				return err
			}
			if show {
				e.display.Type(e.explanation(ctx, q)+"\n", speedExplainHit)
			}
		} else {
			e.display.Type(i18n.T(ctx, "WrongAnswer")+"\n\n", speedPrompt)
			show, err := e.Confirm(ctx, "ShowAnswer")
			if err != nil {
				return err
			}
			if show {
				e.display.Type("\n"+i18n.Td(ctx, "CorrectAnswerIs", map[string]any{"Letter": string(q.Answer)})+"\n", speedPrompt)
				header := i18n.T(ctx, "ExplanationHeader")
				e.display.Println("\n" + header)
				e.display.Println(strings.Repeat("-", utf8.RuneCountInString(header)))
				e.display.Type(e.explanation(ctx, q)+"\n", speedExplainMiss)
			}
		}

		e.display.Print("\n")
		next, err := e.Confirm(ctx, "NextQuestion")
		if err != nil {
			return err
		}
		if !next {
			return nil
		}
		e.display.Clear()
	}
}
