package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pavelanni/pyquiz/internal/model"
	"github.com/pavelanni/pyquiz/internal/store"
)

func runHistory(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	export, err := db.ExportHistory(v.GetInt("limit"))
	if err != nil {
		return fmt.Errorf("export history: %w", err)
	}
	last, err := db.GetLastPlay()
	if err != nil {
		return fmt.Errorf("read last play: %w", err)
	}

	return renderHistory(cmd.OutOrStdout(), export, last, v.GetString("format"))
}

func renderHistory(w io.Writer, export model.HistoryExport, last *store.LastPlay, format string) error {
	switch strings.ToLower(format) {
	case "json":
		data, err := json.MarshalIndent(export, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(export); err != nil {
			return fmt.Errorf("marshal YAML: %w", err)
		}
		return enc.Close()
	case "text", "":
		return renderHistoryText(w, export, last)
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}
}

func renderHistoryText(w io.Writer, export model.HistoryExport, last *store.LastPlay) error {
	if last != nil {
		fmt.Fprintf(w, "Last played %s: %s questions from %s\n\n",
			humanize.Time(last.PlayedAt), humanize.Comma(int64(last.Questions)), last.Source)
	}
	if export.Count == 0 {
		_, err := fmt.Fprintln(w, "No results yet.")
		return err
	}

	fmt.Fprintf(w, "%-8s  %-20s  %-9s  %8s  %s\n", "ID", "PARTICIPANT", "CORRECT", "AVERAGE", "FINISHED")
	for _, r := range export.Results {
		id := r.ID
		if len(id) > 8 {
			id = id[:8]
		}
		fmt.Fprintf(w, "%-8s  %-20s  %-9s  %7.2f%%  %s\n",
			id,
			r.Participant,
			fmt.Sprintf("%d/%d", r.Correct, r.Total),
			r.AverageScore,
			humanize.Time(r.FinishedAt),
		)
	}
	_, err := fmt.Fprintf(w, "\n%s %s\n", humanize.Comma(int64(export.Count)), plural(export.Count, "result", "results"))
	return err
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
