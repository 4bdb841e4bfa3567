package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/rulerun/rulerun/internal/pipeline"
	"github.com/rulerun/rulerun/internal/rules"
)

var (
	listHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	listRuleStyle   = lipgloss.NewStyle().Bold(true)
	listFieldStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func newListCmd(root *rootFlags) *cobra.Command {
	var pipelineDir string
	var rulesPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the rules a pipeline declares",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := pipeline.Open(pipelineDir)

			path := rulesPath
			if path == "" {
				found, ok := p.RulefilePath()
				if !ok {
					return fmt.Errorf("no rulefile found in %s", p.Path)
				}
				path = found
			}

			rf, err := rules.ParseRulefile(path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, listHeaderStyle.Render(fmt.Sprintf("%s (%s)", p.Name, p.Version())))
			for _, rule := range rf.Rules {
				fmt.Fprintf(out, "  %s\n", listRuleStyle.Render(rule.Name))
				if rule.Output.Raw != "" {
					fmt.Fprintf(out, "    %s %s\n", listFieldStyle.Render("output:"), rule.Output.Raw)
				}
				for _, param := range rule.Params {
					fmt.Fprintf(out, "    %s %s = %s\n", listFieldStyle.Render("param:"), param.Name, param.Expr.Raw)
				}
				if rule.Threads != nil {
					fmt.Fprintf(out, "    %s %s\n", listFieldStyle.Render("threads:"), rule.Threads.Raw)
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&pipelineDir, "pipeline", "p", ".", "Path to the pipeline directory")
	cmd.Flags().StringVarP(&rulesPath, "rules", "r", "", "Rulefile overriding the pipeline's own")

	return cmd
}
