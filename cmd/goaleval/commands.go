package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aristath/goaleval/internal/config"
	"github.com/aristath/goaleval/internal/di"
	"github.com/aristath/goaleval/internal/domain"
	"github.com/aristath/goaleval/internal/modules/evaluation"
	"github.com/aristath/goaleval/internal/modules/goals"
	"github.com/aristath/goaleval/internal/modules/portfolio"
	"github.com/aristath/goaleval/pkg/logger"
)

type goalFlags struct {
	goal                string
	startingWealth      float64
	targetWealth        float64
	timelineYears       int
	monthlyContribution float64
}

func (g *goalFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&g.goal, "goal", "", "free-text goal description")
	cmd.Flags().Float64Var(&g.startingWealth, "starting-wealth", 0, "override the parsed starting wealth")
	cmd.Flags().Float64Var(&g.targetWealth, "target-wealth", 0, "override the parsed target wealth")
	cmd.Flags().IntVar(&g.timelineYears, "years", 0, "override the parsed timeline in years")
	cmd.Flags().Float64Var(&g.monthlyContribution, "monthly", 0, "override the parsed monthly contribution")
}

// overrides keeps only flags the user actually set, so an explicit 0 still wins
func (g *goalFlags) overrides(cmd *cobra.Command) goals.Overrides {
	var o goals.Overrides
	if cmd.Flags().Changed("starting-wealth") {
		o.StartingWealth = &g.startingWealth
	}
	if cmd.Flags().Changed("target-wealth") {
		o.TargetWealth = &g.targetWealth
	}
	if cmd.Flags().Changed("years") {
		o.TimelineYears = &g.timelineYears
	}
	if cmd.Flags().Changed("monthly") {
		o.MonthlyContribution = &g.monthlyContribution
	}
	return o
}

func newEvaluateCmd() *cobra.Command {
	var (
		gf            goalFlags
		portfolioPath string
		numPaths      int
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Run the quantitative evaluation and print the score report as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(gf.goal) == "" {
				return fmt.Errorf("--goal is required")
			}
			p, err := readPortfolio(portfolioPath, cmd.InOrStdin())
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logger.New(logger.Config{Level: cfg.LogLevel, Output: cmd.ErrOrStderr()})

			container, err := di.Wire(cfg, log)
			if err != nil {
				return err
			}
			defer container.Close()

			o := gf.overrides(cmd)
			report := container.EvaluationService.Evaluate(cmd.Context(), evaluation.Request{
				Goal:                gf.goal,
				StartingWealth:      o.StartingWealth,
				TargetWealth:        o.TargetWealth,
				TimelineYears:       o.TimelineYears,
				MonthlyContribution: o.MonthlyContribution,
				Portfolio:           p,
				NumPaths:            numPaths,
			})
			return printJSON(cmd.OutOrStdout(), report)
		},
	}

	gf.register(cmd)
	cmd.Flags().StringVar(&portfolioPath, "portfolio", "", "portfolio JSON file ('-' for stdin)")
	cmd.Flags().IntVar(&numPaths, "paths", 0, "number of simulation paths (default from SIMULATION_PATHS)")
	_ = cmd.MarkFlagRequired("portfolio")
	return cmd
}

func newParseGoalCmd() *cobra.Command {
	var gf goalFlags

	cmd := &cobra.Command{
		Use:   "parse-goal",
		Short: "Print the goal parameters extracted from text",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd.OutOrStdout(), goals.Resolve(gf.goal, gf.overrides(cmd)))
		},
	}

	gf.register(cmd)
	return cmd
}

func newValidateCmd() *cobra.Command {
	var (
		portfolioPath string
		tolerance     float64
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a portfolio (bare JSON or text embedding it) against the allocation rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			text, err := readInput(portfolioPath, cmd.InOrStdin())
			if err != nil {
				return err
			}

			_, valid, message := portfolio.ExtractAndValidate(text, tolerance)
			if err := printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"valid":   valid,
				"message": message,
			}); err != nil {
				return err
			}
			if !valid {
				return fmt.Errorf("portfolio is invalid")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&portfolioPath, "portfolio", "-", "portfolio file ('-' for stdin)")
	cmd.Flags().Float64Var(&tolerance, "tolerance", portfolio.DefaultTolerance, "allowed deviation of the allocation sum from 100")
	return cmd
}

func readInput(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read portfolio: %w", err)
	}
	return string(data), nil
}

func readPortfolio(path string, stdin io.Reader) (domain.Portfolio, error) {
	text, err := readInput(path, stdin)
	if err != nil {
		return domain.Portfolio{}, err
	}
	p, _, err := portfolio.Extract(text)
	if err != nil {
		return domain.Portfolio{}, err
	}
	return p, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
