package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pavelanni/pyquiz/internal/handler"
	"github.com/pavelanni/pyquiz/internal/notify"
	"github.com/pavelanni/pyquiz/internal/source"
	"github.com/pavelanni/pyquiz/internal/store"
)

const (
	envPrefix   = "PYQUIZ"
	passwordEnv = envPrefix + "_SMTP_PASSWORD"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "pyquiz",
		Short:        "Terminal Python quiz with emailed results",
		SilenceUsage: true,
	}

	play := playCmd()
	root.AddCommand(play, saveCmd(), historyCmd(), serveCmd())

	// Make "play" the default when no subcommand is given.
	root.RunE = play.RunE

	// Register play flags on root so bare `pyquiz --num-questions 10` still works.
	root.Flags().AddFlagSet(play.Flags())

	return root
}

func playCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Run the interactive quiz",
		RunE:  runPlay,
	}
	f := cmd.Flags()
	f.String("source-url", source.DefaultURL, "Page to scrape questions from")
	f.String("from", "", "Play questions from a file written by `pyquiz save` instead of fetching")
	f.IntP("num-questions", "n", 0, "Number of questions per quiz (0 = all available)")
	f.Bool("shuffle", true, "Randomize question order")
	f.Bool("strict", false, "Abort when any question block on the page is malformed")
	f.Int("speed", 0, "Typewriter speed boost (10 prints instantly, negative slows down)")
	f.StringP("lang", "l", "en", "UI language (en, ru)")
	f.String("db", "pyquiz.db", "SQLite database for the results history (empty disables it)")
	f.String("smtp-host", notify.DefaultHost, "SMTP relay host")
	f.Int("smtp-port", notify.DefaultPort, "SMTP relay port (STARTTLS)")
	f.String("smtp-user", "", "Sender address used to log in to the relay (password from "+passwordEnv+")")
	f.String("mail-to", "", "Recipient of the results email")
	f.String("llm-url", "", "OpenAI-compatible API base URL for missing explanations (empty disables)")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "llama3.2", "LLM model name")
	addLogFlags(f)
	return cmd
}

func saveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Fetch the questions and write them to a JSON file",
		RunE:  runSave,
	}
	f := cmd.Flags()
	f.String("source-url", source.DefaultURL, "Page to scrape questions from")
	f.StringP("output", "o", "", "Output path (.json is appended when missing)")
	f.Bool("strict", false, "Abort when any question block on the page is malformed")
	addLogFlags(f)

	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past quiz results",
		RunE:  runHistory,
	}
	f := cmd.Flags()
	f.String("db", "pyquiz.db", "SQLite database path")
	f.Int("limit", 20, "Maximum number of results (0 = all)")
	f.String("format", "text", "Output format (text, json, yaml)")
	addLogFlags(f)
	return cmd
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the results history as a JSON API",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "pyquiz.db", "SQLite database path")
	addLogFlags(f)
	return cmd
}

func addLogFlags(f *pflag.FlagSet) {
	f.String("log-level", "warn", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelWarn
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("pyquiz")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/pyquiz")
	v.AddConfigPath("/etc/pyquiz")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// smtpPassword reads the relay password from the environment only, so it
// never comes from a flag or a config file.
func smtpPassword() string {
	v := viper.New()
	_ = v.BindEnv("smtp-password", passwordEnv)
	return v.GetString("smtp-password")
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	h := handler.New(db)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server", "addr", addr, "db", v.GetString("db"))
	return http.ListenAndServe(addr, r)
}
