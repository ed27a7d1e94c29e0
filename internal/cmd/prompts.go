package cmd

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/therealutkarshpriyadarshi/convlog/internal/promptdb"
	"github.com/therealutkarshpriyadarshi/convlog/internal/render"
)

const catalogTimeLayout = "2006-01-02 15:04:05"

func newPromptsCommand(o *options) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "Manage prompt versions",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "prompt database (default from config)")

	// withPrompts opens the catalog for the duration of one command
	withPrompts := func(fn func(p *promptdb.Prompts) error) error {
		path := dbPath
		if path == "" {
			path = o.cfg.Database.PromptsPath
		}
		p, err := promptdb.OpenPrompts(path)
		if err != nil {
			return err
		}
		defer p.Close()
		return fn(p)
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "init",
			Short: "Initialize the database",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withPrompts(func(p *promptdb.Prompts) error {
					fmt.Fprintln(o.stdout, "Database initialized successfully.")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "add-prompt <name> <description>",
			Short: "Add a new prompt",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withPrompts(func(p *promptdb.Prompts) error {
					prompt, err := p.AddPrompt(args[0], args[1])
					if err != nil {
						return err
					}
					fmt.Fprintf(o.stdout, "Prompt created: %s (ID: %s)\n", prompt.Name, prompt.ID)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "add-version <prompt-name> <version> <content-file>",
			Short: "Add a version to a prompt",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				content, err := os.ReadFile(args[2])
				if err != nil {
					return fmt.Errorf("failed to read content file: %w", err)
				}
				return withPrompts(func(p *promptdb.Prompts) error {
					v, err := p.AddVersion(args[0], args[1], string(content))
					if err != nil {
						return err
					}
					fmt.Fprintf(o.stdout, "Version created: %s (ID: %s)\n", v.Version, v.ID)
					return nil
				})
			},
		},
		newToggleCommand(o, "enable", true, withPrompts),
		newToggleCommand(o, "disable", false, withPrompts),
		&cobra.Command{
			Use:   "list",
			Short: "List all prompts",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withPrompts(func(p *promptdb.Prompts) error {
					summaries, err := p.ListPrompts()
					if err != nil {
						return err
					}
					if len(summaries) == 0 {
						fmt.Fprintln(o.stdout, "No prompts found.")
						return nil
					}

					rows := make([][]string, 0, len(summaries))
					for _, s := range summaries {
						rows = append(rows, []string{
							s.Name,
							s.ID,
							s.Description,
							fmt.Sprintf("%d/%d enabled", s.EnabledVersions, s.TotalVersions),
							s.CreatedAt.Format(catalogTimeLayout),
						})
					}
					fmt.Fprintln(o.stdout, "\nPrompts:")
					render.Table(o.stdout, []string{"Name", "ID", "Description", "Versions", "Created"}, rows)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "list-versions <prompt-name>",
			Short: "List the versions of a prompt",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withPrompts(func(p *promptdb.Prompts) error {
					versions, err := p.ListVersions(args[0])
					if err != nil {
						return err
					}
					if len(versions) == 0 {
						fmt.Fprintf(o.stdout, "No versions found for prompt '%s'.\n", args[0])
						return nil
					}

					rows := make([][]string, 0, len(versions))
					for _, v := range versions {
						rows = append(rows, []string{
							v.Version,
							versionStatus(v.Enabled),
							v.ID,
							fmt.Sprintf("%d chars", utf8.RuneCountInString(v.Content)),
							v.CreatedAt.Format(catalogTimeLayout),
						})
					}
					fmt.Fprintf(o.stdout, "\nVersions for '%s':\n", args[0])
					render.Table(o.stdout, []string{"Version", "Status", "ID", "Content", "Created"}, rows)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "show <version-id>",
			Short: "Show the content of a version",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withPrompts(func(p *promptdb.Prompts) error {
					v, err := p.ShowVersion(args[0])
					if err != nil {
						return err
					}
					rule := strings.Repeat("-", o.cfg.Render.Width)
					fmt.Fprintf(o.stdout, "\nPrompt: %s\n", v.PromptName)
					fmt.Fprintf(o.stdout, "Version: %s [%s]\n", v.Version, versionStatus(v.Enabled))
					fmt.Fprintf(o.stdout, "Created: %s\n", v.CreatedAt.Format(catalogTimeLayout))
					fmt.Fprintln(o.stdout, rule)
					fmt.Fprintln(o.stdout, v.Content)
					fmt.Fprintln(o.stdout, rule)
					return nil
				})
			},
		},
	)
	return cmd
}

func newToggleCommand(o *options, name string, enabled bool, withPrompts func(func(*promptdb.Prompts) error) error) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <version-id>",
		Short: strings.ToUpper(name[:1]) + name[1:] + " a version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPrompts(func(p *promptdb.Prompts) error {
				if err := p.SetEnabled(args[0], enabled); err != nil {
					return err
				}
				fmt.Fprintf(o.stdout, "Version %s %sd.\n", args[0], name)
				return nil
			})
		},
	}
}

func versionStatus(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}
