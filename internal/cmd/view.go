package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/therealutkarshpriyadarshi/convlog/internal/metrics"
	"github.com/therealutkarshpriyadarshi/convlog/internal/parser"
	"github.com/therealutkarshpriyadarshi/convlog/internal/reader"
	"github.com/therealutkarshpriyadarshi/convlog/internal/render"
	"github.com/therealutkarshpriyadarshi/convlog/internal/store"
	"github.com/therealutkarshpriyadarshi/convlog/internal/timeline"
	"github.com/therealutkarshpriyadarshi/convlog/pkg/types"
)

func (o *options) runView(cmd *cobra.Command, args []string) error {
	if o.list {
		return o.runList()
	}

	collector := metrics.NewCollector()
	defer o.writeMetrics(collector)

	locator := store.NewLocator(o.cfg.Store.AgentLogsDir)

	var (
		id   string
		refs []types.LogFileRef
		err  error
	)
	if len(args) == 1 {
		id = args[0]
		refs, err = locator.Locate(id)
	} else {
		id, refs, err = locator.LocateLatest()
	}
	if err != nil {
		return err
	}

	p := parser.NewJSONParser()
	if o.where != "" {
		f, err := parser.NewFilter(o.where)
		if err != nil {
			return fmt.Errorf("invalid --where expression: %w", err)
		}
		p.WithFilter(f)
	}

	logger := o.logger.WithConversation(id)
	result := reader.ReadAll(refs, reader.Options{
		Parser:  p,
		Logger:  logger,
		Metrics: collector,
	})
	for _, failure := range result.Failures {
		fmt.Fprintf(o.stderr, "Error reading %s: %v\n", failure.Path, failure.Err)
	}
	logger.Debug().
		Int64("parsed", result.Stats.Parsed).
		Int64("blank", result.Stats.Blank).
		Int64("malformed", result.Stats.Malformed).
		Int64("filtered", result.Stats.Filtered).
		Msg("Files read")

	tl := timeline.Merge(result.PerFile)
	collector.RecordMerge(len(tl), tl.Untimed())
	logger.Debug().
		Int("entries", len(tl)).
		Int("untimed", tl.Untimed()).
		Strs("producers", tl.Producers()).
		Msg("Timeline merged")

	mode := render.ModeGrouped
	if o.timeline {
		mode = render.ModeTimeline
	}

	r := render.New(
		render.StyleFromConfig(o.cfg.Render, o.stdout, o.noColor),
		render.OptionsFromConfig(o.cfg.Render),
	)
	return render.Write(o.stdout, r.Render(timeline.Assemble(id, refs, tl), mode))
}

func (o *options) runList() error {
	locator := store.NewLocator(o.cfg.Store.AgentLogsDir)

	summaries, err := locator.ListConversations()
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Fprintf(o.stdout, "No conversation logs found in ./%s\n", locator.Dir())
		return nil
	}

	fmt.Fprintln(o.stdout, "\nAVAILABLE CONVERSATIONS")
	render.RenderIndex(o.stdout, summaries)
	fmt.Fprintln(o.stdout, "\nTip: Use the UUID as an argument to read that conversation")
	return nil
}

func (o *options) writeMetrics(collector *metrics.Collector) {
	if o.cfg.Metrics.Textfile == "" {
		return
	}
	if err := collector.WriteTextfile(o.cfg.Metrics.Textfile); err != nil {
		o.logger.Error().Err(err).Str("path", o.cfg.Metrics.Textfile).Msg("Failed to export metrics")
	}
}
