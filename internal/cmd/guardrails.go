package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/therealutkarshpriyadarshi/convlog/internal/promptdb"
)

func newGuardrailsCommand(o *options) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "guardrails",
		Short: "Manage pipeline guardrails",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "guardrail database (default from config)")

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the schema and seed the code-execution pipeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := dbPath
			if path == "" {
				path = o.cfg.Database.GuardrailsPath
			}
			return o.initGuardrails(path)
		},
	})
	return cmd
}

func (o *options) initGuardrails(path string) error {
	g, err := promptdb.OpenGuardrails(path)
	if err != nil {
		return err
	}
	defer g.Close()
	fmt.Fprintf(o.stdout, "Created schema in %s\n", path)

	seeded, err := g.Seed()
	if err != nil {
		return err
	}

	pipelines, err := g.Pipelines()
	if err != nil {
		return err
	}

	if seeded {
		for _, p := range pipelines {
			if p.Name == promptdb.CodeExecutionPipeline {
				fmt.Fprintf(o.stdout, "Seeded %d guardrails for '%s' pipeline\n", len(p.Guardrails), p.Name)
			}
		}
	} else {
		fmt.Fprintf(o.stdout, "Pipeline '%s' already exists, skipping seed\n", promptdb.CodeExecutionPipeline)
	}

	fmt.Fprintln(o.stdout, "\nPipelines:")
	for _, p := range pipelines {
		fmt.Fprintf(o.stdout, "  - %s (%s)\n", p.Name, p.ID)
		fmt.Fprintf(o.stdout, "    %s\n", p.Description)
	}

	fmt.Fprintln(o.stdout, "\nGuardrails:")
	for _, p := range pipelines {
		for _, guard := range p.Guardrails {
			status := "enabled"
			if !guard.Enabled {
				status = "disabled"
			}
			fmt.Fprintf(o.stdout, "  - %s [%s]\n", guard.Name, status)
			fmt.Fprintf(o.stdout, "    %s\n", guard.Description)
		}
	}
	return nil
}
