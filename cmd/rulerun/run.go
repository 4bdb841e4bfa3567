package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rulerun/rulerun/internal/config"
	"github.com/rulerun/rulerun/internal/engine"
	"github.com/rulerun/rulerun/internal/logger"
	"github.com/rulerun/rulerun/internal/pipeline"
	"github.com/rulerun/rulerun/internal/rules"
	"github.com/rulerun/rulerun/internal/tui"
)

type runOptions struct {
	PipelineDir     string
	ConfigPath      string
	RulesPath       string
	ContinueOnError bool
	Verbose         bool
	NonInteractive  bool
}

var runCmdRunner = runRules

func newRunCmd(root *rootFlags) *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run [rules...]",
		Short: "Run pipeline rules in declaration order",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Verbose = root.verbose
			opts.NonInteractive = !term.IsTerminal(int(os.Stdout.Fd()))
			return runCmdRunner(opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.PipelineDir, "pipeline", "p", ".", "Path to the pipeline directory")
	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Configuration file overriding the pipeline's own")
	cmd.Flags().StringVarP(&opts.RulesPath, "rules", "r", "", "Rulefile overriding the pipeline's own")
	cmd.Flags().BoolVar(&opts.ContinueOnError, "continue-on-error", false, "Keep running remaining rules after a failure")

	return cmd
}

func runRules(opts runOptions, names []string) error {
	p := pipeline.Open(opts.PipelineDir)

	rulesPath := opts.RulesPath
	if rulesPath == "" {
		found, ok := p.RulefilePath()
		if !ok {
			return fmt.Errorf("no rulefile found in %s", p.Path)
		}
		rulesPath = found
	}

	rf, err := rules.ParseRulefile(rulesPath)
	if err != nil {
		return err
	}

	cfg := config.New(nil)
	configPath := opts.ConfigPath
	if configPath == "" {
		if found, ok := p.ConfigPath(); ok {
			configPath = found
		}
	}
	if configPath != "" {
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
	}

	level := "info"
	if opts.Verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Options{Level: level, HumanReadable: true})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng := engine.New(cfg, rf, engine.Options{
		Logger:          log,
		WorkDir:         p.Path,
		ContinueOnError: opts.ContinueOnError,
	})

	if len(names) == 0 {
		names = rf.Names()
	}

	modelState := tui.NewModel(p.Name, names, opts.NonInteractive)
	interactive := !opts.NonInteractive

	var program *tea.Program
	var programErr error
	done := make(chan struct{})

	if interactive {
		program = tea.NewProgram(modelState)
		go func() {
			_, programErr = program.Run()
			close(done)
		}()
	}

	var runErr error
	for _, name := range names {
		dispatchTuiMessage(interactive, program, &modelState, tui.RuleStartMsg{Name: name})
		res, err := eng.Run(ctx, name)
		dispatchTuiMessage(interactive, program, &modelState, tui.RuleCompleteMsg{Result: res})
		if err != nil {
			if runErr == nil {
				runErr = err
			}
			if !opts.ContinueOnError {
				break
			}
		}
	}

	if interactive {
		if program != nil {
			program.Send(tea.QuitMsg{})
		}
		<-done
		if programErr != nil {
			return programErr
		}
	} else {
		fmt.Fprintln(os.Stdout, modelState.View())
	}

	return runErr
}

func dispatchTuiMessage(interactive bool, program *tea.Program, state *tui.Model, msg tea.Msg) {
	if interactive {
		if program != nil {
			program.Send(msg)
		}
		return
	}

	updated, _ := state.Update(msg)
	if m, ok := updated.(tui.Model); ok {
		*state = m
	}
}
