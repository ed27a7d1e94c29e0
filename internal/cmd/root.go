package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/therealutkarshpriyadarshi/convlog/internal/config"
	"github.com/therealutkarshpriyadarshi/convlog/internal/logging"
	"github.com/therealutkarshpriyadarshi/convlog/internal/store"
)

var version = "0.1.0"

const listTip = "Run with -l to list available conversations"

// options holds flag values and the state shared by every command
type options struct {
	configFile      string
	agentLogsDir    string
	metricsTextfile string
	where           string
	list            bool
	timeline        bool
	noColor         bool

	stdout io.Writer
	stderr io.Writer

	cfg    *config.Config
	logger *logging.Logger
}

// NewRootCommand builds the command tree writing to the given streams
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	o := &options{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "convlog [conversation-id]",
		Short: "Read multi-agent conversation logs",
		Long: `convlog merges the per-agent JSONL logs of one conversation into a single
timeline and prints it. Without an id the most recently active
conversation is shown.

Examples:
  convlog                                    # latest conversation
  convlog -l                                 # list conversations
  convlog 759b0e58-...                       # one conversation
  convlog 759b0e58-... --timeline            # chronological, tagged by agent
  convlog --where '.level == "ERROR"'        # only matching records`,
		Version:           version,
		Args:              conversationArg,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return o.setup() },
		RunE:              o.runView,
	}

	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVarP(&o.configFile, "config", "c", "", "config file (default: ./"+config.DefaultConfigFile+" when present)")
	root.PersistentFlags().StringVar(&o.agentLogsDir, "agent-logs-dir", "", "directory holding {uuid}_{agent}.jsonl files")
	root.PersistentFlags().StringVar(&o.metricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file on exit")
	root.PersistentFlags().BoolVar(&o.noColor, "no-color", false, "disable colored output")

	root.Flags().BoolVarP(&o.list, "list", "l", false, "list available conversations")
	root.Flags().BoolVarP(&o.timeline, "timeline", "t", false, "show a chronological timeline instead of grouping by agent")
	root.Flags().StringVar(&o.where, "where", "", "jq expression; only records for which it is true are shown")

	root.AddCommand(newExchangesCommand(o))
	root.AddCommand(newPromptsCommand(o))
	root.AddCommand(newGuardrailsCommand(o))

	return root
}

// Execute runs the root command
func Execute() {
	if err := NewRootCommand(os.Stdout, os.Stderr).Execute(); err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

func reportError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
	if errors.Is(err, store.ErrStoreNotFound) || errors.Is(err, store.ErrConversationNotFound) {
		fmt.Fprintln(w, listTip)
	}
}

func conversationArg(cmd *cobra.Command, args []string) error {
	if err := cobra.MaximumNArgs(1)(cmd, args); err != nil {
		return err
	}
	if len(args) == 1 && !store.IsConversationID(args[0]) {
		return fmt.Errorf("invalid conversation id %q: expected a lowercase UUID (see --help)", args[0])
	}
	return nil
}

// setup loads configuration, applies flag overrides and builds the logger
func (o *options) setup() error {
	var (
		cfg *config.Config
		err error
	)
	if o.configFile != "" {
		cfg, err = config.Load(o.configFile)
	} else {
		cfg, err = config.LoadOrDefault(config.DefaultConfigFile)
	}
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if o.agentLogsDir != "" {
		cfg.Store.AgentLogsDir = o.agentLogsDir
	}
	if o.metricsTextfile != "" {
		cfg.Metrics.Textfile = o.metricsTextfile
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok || o.noColor {
		cfg.Render.NoColor = true
	}

	o.cfg = cfg
	o.logger = logging.New(logging.Config{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Output:  o.stderr,
		NoColor: cfg.Render.NoColor,
	})

	o.logger.Debug().Str("version", version).Str("agent_logs_dir", cfg.Store.AgentLogsDir).Msg("Configuration loaded")
	return nil
}
