package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/therealutkarshpriyadarshi/convlog/internal/exchange"
	"github.com/therealutkarshpriyadarshi/convlog/internal/render"
	"github.com/therealutkarshpriyadarshi/convlog/internal/store"
)

const (
	defaultRecentLimit = 10
	exchangeTextMaxLen = 500
)

func newExchangesCommand(o *options) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "exchanges",
		Short: "Inspect consolidated model exchange logs",
		Long: `Reports on the consolidated {uuid}.jsonl exchange logs, one file per
conversation with one record per model call.`,
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "", "conversation log directory (default from config)")

	exchanges := func() *exchange.Store {
		if dir == "" {
			dir = o.cfg.Store.ConversationLogsDir
		}
		return exchange.NewStore(dir, o.logger)
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "stats",
			Short: "Show overall statistics",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return o.exchangeStats(exchanges())
			},
		},
		&cobra.Command{
			Use:   "stats-by-version",
			Short: "Show statistics per prompt version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return o.exchangeStatsByVersion(exchanges())
			},
		},
		&cobra.Command{
			Use:   "conversation <conversation-id>",
			Short: "Show every exchange of a conversation",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return o.exchangeConversation(exchanges(), args[0])
			},
		},
		&cobra.Command{
			Use:   "recent [limit]",
			Short: "Show the most recent exchanges",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				limit := defaultRecentLimit
				if len(args) == 1 {
					n, err := strconv.Atoi(args[0])
					if err != nil || n < 0 {
						return fmt.Errorf("invalid limit %q: expected a non-negative integer", args[0])
					}
					limit = n
				}
				return o.exchangeRecent(exchanges(), limit)
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List conversation log files",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return o.exchangeList(exchanges())
			},
		},
	)
	return cmd
}

func (o *options) loadExchanges(s *exchange.Store) ([]exchange.Exchange, bool, error) {
	exs, err := s.LoadAll()
	if err != nil {
		return nil, false, err
	}
	if len(exs) == 0 {
		fmt.Fprintln(o.stdout, "No exchanges logged yet.")
		return nil, false, nil
	}
	return exs, true, nil
}

func (o *options) exchangeStats(s *exchange.Store) error {
	exs, ok, err := o.loadExchanges(s)
	if !ok {
		return err
	}

	stats := exchange.Summarize(exs)
	fmt.Fprintln(o.stdout, "\nOverall Statistics:")
	render.Table(o.stdout, []string{"Metric", "Value"}, [][]string{
		{"Total exchanges", strconv.Itoa(stats.Total)},
		{"Total conversations", strconv.Itoa(stats.Conversations)},
		{"Unique prompt versions", strconv.Itoa(stats.PromptVersions)},
		{"Average latency", fmt.Sprintf("%.0f ms", stats.AvgLatencyMs)},
		{"Average input tokens", fmt.Sprintf("%.1f", stats.AvgInputTokens)},
		{"Average output tokens", fmt.Sprintf("%.1f", stats.AvgOutputTokens)},
		{"Error rate", fmt.Sprintf("%.1f%% (%d errors)", stats.ErrorRate(), stats.Errors)},
	})
	return nil
}

func (o *options) exchangeStatsByVersion(s *exchange.Store) error {
	exs, ok, err := o.loadExchanges(s)
	if !ok {
		return err
	}

	var rows [][]string
	for _, v := range exchange.ByVersion(exs) {
		rows = append(rows, []string{
			v.VersionID,
			strconv.Itoa(v.Total),
			fmt.Sprintf("%.0f ms", v.AvgLatencyMs),
			fmt.Sprintf("%.1f in / %.1f out", v.AvgInputTokens, v.AvgOutputTokens),
			fmt.Sprintf("%.1f%%", v.ErrorRate()),
		})
	}

	fmt.Fprintln(o.stdout, "\nStatistics by Prompt Version:")
	render.Table(o.stdout, []string{"Version", "Uses", "Avg Latency", "Avg Tokens", "Error Rate"}, rows)
	return nil
}

func (o *options) exchangeConversation(s *exchange.Store, id string) error {
	exs, err := s.LoadConversation(id)
	if err != nil {
		return err
	}
	if len(exs) == 0 {
		fmt.Fprintf(o.stdout, "No exchanges found for conversation: %s\n", id)
		return nil
	}

	w := o.stdout
	fmt.Fprintf(w, "\nConversation: %s\n", id)
	fmt.Fprintln(w, strings.Repeat("=", o.cfg.Render.Width))

	for i, e := range exs {
		fmt.Fprintf(w, "\n--- Exchange %d [%s] ---\n", i+1, e.Timestamp)
		fmt.Fprintf(w, "Version: %s\n", e.PromptVersionID)
		fmt.Fprintf(w, "Model: %s | Latency: %.0fms\n", e.ModelName, e.LatencyMs)
		if e.Failed() {
			fmt.Fprintf(w, "ERROR: %s\n", e.Error)
		}
		fmt.Fprintf(w, "\nInput:\n%s\n", render.Truncate(string(e.InputMessages), exchangeTextMaxLen))
		fmt.Fprintf(w, "\nOutput:\n%s\n", render.Truncate(string(e.OutputResponse), exchangeTextMaxLen))
	}
	return nil
}

func (o *options) exchangeRecent(s *exchange.Store, limit int) error {
	exs, ok, err := o.loadExchanges(s)
	if !ok {
		return err
	}

	recent := exchange.Recent(exs, limit)
	rows := make([][]string, 0, len(recent))
	for _, e := range recent {
		status := "OK"
		if e.Failed() {
			status = "ERROR"
		}
		rows = append(rows, []string{
			e.Timestamp,
			status,
			e.ID,
			e.ConversationID,
			e.PromptVersionID,
			e.ModelName,
			fmt.Sprintf("%.0fms", e.LatencyMs),
			fmt.Sprintf("%.0f/%.0f", e.InputTokens, e.OutputTokens),
		})
	}

	fmt.Fprintf(o.stdout, "\nRecent %d Exchanges:\n", len(recent))
	render.Table(o.stdout, []string{"Timestamp", "Status", "ID", "Conversation", "Version", "Model", "Latency", "Tokens"}, rows)
	return nil
}

func (o *options) exchangeList(s *exchange.Store) error {
	files, err := s.Files()
	if err != nil {
		if errors.Is(err, store.ErrStoreNotFound) {
			fmt.Fprintln(o.stdout, "No logs directory found.")
			return nil
		}
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(o.stdout, "No conversation logs found.")
		return nil
	}

	rows := make([][]string, 0, len(files))
	for _, f := range files {
		rows = append(rows, []string{
			f.ConversationID,
			strconv.Itoa(f.Exchanges),
			fmt.Sprintf("%d bytes", f.Size),
			f.ModTime.Local().Format("2006-01-02 15:04:05"),
		})
	}

	fmt.Fprintf(o.stdout, "\nConversations (%d total):\n", len(files))
	render.Table(o.stdout, []string{"Conversation", "Exchanges", "Size", "Modified"}, rows)
	return nil
}
