package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pavelanni/pyquiz/internal/console"
	appI18n "github.com/pavelanni/pyquiz/internal/i18n"
	"github.com/pavelanni/pyquiz/internal/llm"
	"github.com/pavelanni/pyquiz/internal/model"
	"github.com/pavelanni/pyquiz/internal/notify"
	"github.com/pavelanni/pyquiz/internal/session"
	"github.com/pavelanni/pyquiz/internal/source"
	"github.com/pavelanni/pyquiz/internal/store"
)

func policyFor(strict bool) source.Policy {
	if strict {
		return source.AbortOnMalformed
	}
	return source.SkipMalformed
}

// selectQuestions applies the shuffle and question-count settings.
func selectQuestions(questions []model.QuestionRecord, cfg model.QuizConfig) []model.QuestionRecord {
	if cfg.Shuffle {
		rand.Shuffle(len(questions), func(i, j int) {
			questions[i], questions[j] = questions[j], questions[i]
		})
	}
	if cfg.NumQuestions > 0 && cfg.NumQuestions < len(questions) {
		questions = questions[:cfg.NumQuestions]
	}
	return questions
}

func runPlay(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := cmd.Context()

	if err := appI18n.Init(v.GetString("lang")); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}
	ctx = appI18n.WithLocalizer(ctx, appI18n.NewLocalizer(appI18n.Default()))

	cfg := model.QuizConfig{
		NumQuestions: v.GetInt("num-questions"),
		Shuffle:      v.GetBool("shuffle"),
		SpeedBoost:   v.GetInt("speed"),
	}

	display := console.New(os.Stdout)
	display.SetSpeedBoost(cfg.SpeedBoost)

	var explainer session.Explainer
	if url := v.GetString("llm-url"); url != "" {
		explainer = llm.New(url, v.GetString("llm-key"), v.GetString("llm-model"))
		slog.Info("LLM explanations enabled", "url", url, "model", v.GetString("llm-model"))
	}
	engine := session.NewEngine(display, os.Stdin, explainer)

	display.Clear()
	engine.Header(ctx)

	questions, origin, err := loadQuestions(ctx, v, display)
	if err != nil {
		return err
	}
	questions = selectQuestions(questions, cfg)
	display.Println(appI18n.Tp(ctx, "QuestionsLoaded", len(questions)))

	name, err := engine.AskName(ctx)
	if err != nil {
		return fmt.Errorf("read participant name: %w", err)
	}

	summary, err := engine.Run(ctx, name, questions)
	if err != nil {
		return fmt.Errorf("run quiz: %w", err)
	}
	engine.ShowResults(ctx, summary)

	historyErr := recordResult(v.GetString("db"), summary, origin)
	if historyErr != nil {
		slog.Error("results history not updated", "error", historyErr)
	}

	if err := engine.WaitForEnter(ctx); err != nil {
		return err
	}

	mailErr := shareResults(ctx, newMailer(v), v.GetString("mail-to"), engine, display, summary)

	engine.Farewell(ctx)
	return errors.Join(historyErr, mailErr)
}

// loadQuestions reads questions from --from or fetches them from the page.
// It also returns where they came from.
func loadQuestions(ctx context.Context, v *viper.Viper, display *console.Display) ([]model.QuestionRecord, string, error) {
	if path := v.GetString("from"); path != "" {
		questions, err := store.LoadQuestions(path)
		if err != nil {
			return nil, "", fmt.Errorf("load questions: %w", err)
		}
		if len(questions) == 0 {
			return nil, "", fmt.Errorf("load questions: %w: %s contains no questions", model.ErrMalformedSource, path)
		}
		slog.Info("loaded questions from file", "path", path, "count", len(questions))
		return questions, path, nil
	}

	url := v.GetString("source-url")
	display.Println(appI18n.T(ctx, "FetchingQuestions"))
	src := source.New(source.NewFetcher(url), policyFor(v.GetBool("strict")))
	questions, err := src.Load(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("fetch questions: %w", err)
	}
	return questions, url, nil
}

func recordResult(dbPath string, summary model.ResultSummary, origin string) error {
	if dbPath == "" {
		return nil
	}
	db, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("%w: open results database: %v", model.ErrPersistenceFailure, err)
	}
	defer db.Close()

	id, err := db.SaveResult(summary, origin)
	if err != nil {
		return fmt.Errorf("%w: save result: %v", model.ErrPersistenceFailure, err)
	}
	if err := db.RecordPlay(origin, summary.Total); err != nil {
		return fmt.Errorf("%w: record play: %v", model.ErrPersistenceFailure, err)
	}
	slog.Info("result saved", "id", id, "participant", summary.Participant)
	return nil
}

// mailer is the part of notify.Notifier the share step uses.
type mailer interface {
	Enabled(to string) bool
	Send(ctx context.Context, to, subject, body string) error
}

var _ mailer = (*notify.Notifier)(nil)

func newMailer(v *viper.Viper) *notify.Notifier {
	return notify.New(notify.Config{
		Host:     v.GetString("smtp-host"),
		Port:     v.GetInt("smtp-port"),
		Username: v.GetString("smtp-user"),
		Password: smtpPassword(),
	})
}

// shareResults offers to email the report. It only asks when a sender,
// a password and a recipient are all configured.
func shareResults(ctx context.Context, m mailer, to string, engine *session.Engine, display *console.Display, summary model.ResultSummary) error {
	if !m.Enabled(to) {
		slog.Debug("results email disabled", "mail_to_set", to != "")
		return nil
	}

	display.Print("\n")
	share, err := engine.Confirm(ctx, "ShareResults")
	if err != nil {
		if errors.Is(err, session.ErrInputClosed) {
			return nil
		}
		return err
	}
	if !share {
		return nil
	}

	display.Println("\n" + appI18n.T(ctx, "SendingEmail"))
	err = m.Send(ctx, to, session.Completion(ctx, summary), session.Report(ctx, summary))
	if err != nil {
		slog.Error("send results email", "error", err)
		display.Println(appI18n.Td(ctx, "EmailFailed", map[string]any{"Error": err.Error()}))
		return err
	}
	display.Println(appI18n.T(ctx, "EmailSent"))
	return nil
}

func runSave(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	src := source.New(source.NewFetcher(v.GetString("source-url")), policyFor(v.GetBool("strict")))
	questions, err := src.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("fetch questions: %w", err)
	}

	path, err := store.SaveQuestions(questions, v.GetString("output"))
	if err != nil {
		return err
	}
	slog.Info("saved questions", "path", path, "count", len(questions))
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %d questions to %s\n", len(questions), path)
	return nil
}
