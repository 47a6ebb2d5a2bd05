package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"payoff/internal/cli"
	"payoff/internal/config"
	"payoff/internal/core"
	"payoff/internal/csvio"
	"payoff/internal/export"
	"payoff/internal/log"
	"payoff/internal/services"
	"payoff/internal/validator"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
	exitInvalid = 3
)

func main() {
	cli.LoadEnvFile()
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	debtsPath string
	planPath  string

	strategy string
	extra    string
	target   string
	split    string

	horizon       int
	rounding      string
	allowNegative bool

	compare     bool
	schedule    bool
	format      string
	exportSheet string
}

func parseFlags(args []string, stderr io.Writer) (*options, map[string]bool, error) {
	fs := flag.NewFlagSet("payoff", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var o options
	fs.StringVar(&o.debtsPath, "debts", "", "CSV file with one debt per row")
	fs.StringVar(&o.planPath, "plan", "", "YAML plan with debts and strategies")
	fs.StringVar(&o.strategy, "strategy", "avalanche", "minimum-only, fixed-extra, avalanche, snowball or planned")
	fs.StringVar(&o.extra, "extra", "0", "extra amount paid every month")
	fs.StringVar(&o.target, "target", "", "debt id that receives a fixed extra")
	fs.StringVar(&o.split, "split", "", "fixed-extra split: target or even")
	fs.IntVar(&o.horizon, "horizon", 0, "maximum months to simulate (0 uses the configured default)")
	fs.StringVar(&o.rounding, "rounding", "", "interest rounding policy (half-up, half-even, down, up)")
	fs.BoolVar(&o.allowNegative, "allow-negative-amortization", false, "accept minimums that do not cover interest")
	fs.BoolVar(&o.compare, "compare", false, "compare strategies against minimum-only")
	fs.BoolVar(&o.schedule, "schedule", false, "print the month-by-month schedule in table output")
	fs.StringVar(&o.format, "format", "table", "output format: table or csv")
	fs.StringVar(&o.exportSheet, "export-sheet", "", "also write the schedule to a Google Sheets tab with this title")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	switch {
	case (o.debtsPath == "") == (o.planPath == ""):
		return nil, nil, errors.New("exactly one of -debts or -plan is required")
	case o.format != "table" && o.format != "csv":
		return nil, nil, fmt.Errorf("unknown format %q", o.format)
	}
	return &o, set, nil
}

// input is what the flags and an optional plan resolve to.
type input struct {
	debts      []core.RawDebt
	strategies []core.Strategy
	run        services.RunOptions
}

func resolveInput(o *options, set map[string]bool) (*input, error) {
	in := &input{}
	if o.planPath != "" {
		plan, err := config.LoadPlan(o.planPath)
		if err != nil {
			return nil, err
		}
		in.debts = plan.Debts
		in.strategies = plan.Strategies
		in.run = services.RunOptions{
			HorizonMonths:             plan.HorizonMonths,
			AllowNegativeAmortization: plan.AllowNegativeAmortization,
		}
		if plan.Rounding != "" {
			if in.run.Rounding, err = core.ParseRoundingPolicy(plan.Rounding); err != nil {
				return nil, err
			}
		}
	} else {
		f, err := os.Open(o.debtsPath)
		if err != nil {
			return nil, fmt.Errorf("open debts: %w", err)
		}
		defer f.Close()
		if in.debts, err = csvio.ReadDebts(f); err != nil {
			return nil, err
		}
	}

	if set["horizon"] {
		in.run.HorizonMonths = o.horizon
	}
	if set["rounding"] {
		policy, err := core.ParseRoundingPolicy(o.rounding)
		if err != nil {
			return nil, err
		}
		in.run.Rounding = policy
	}
	if o.allowNegative {
		in.run.AllowNegativeAmortization = true
	}

	// Strategy flags win over the plan; without a plan they always apply.
	strategyFlags := set["strategy"] || set["extra"] || set["target"] || set["split"]
	if len(in.strategies) == 0 || strategyFlags {
		extra, err := core.ParseAmount(o.extra)
		if err != nil {
			return nil, fmt.Errorf("extra: %w", err)
		}
		base := core.Strategy{
			ExtraAmount: core.Money{Cents: extra},
			TargetID:    o.target,
			Split:       core.SplitMode(o.split),
		}
		if o.compare && !set["strategy"] {
			in.strategies = nil
			for _, k := range core.Kinds() {
				s := base
				s.Kind = k
				in.strategies = append(in.strategies, s)
			}
		} else {
			kind, err := core.ParseStrategyKind(o.strategy)
			if err != nil {
				return nil, err
			}
			base.Kind = kind
			in.strategies = []core.Strategy{base}
		}
	}
	for _, s := range in.strategies {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}
	return in, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	o, set, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(stderr, "payoff:", err)
		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, "payoff:", err)
		return exitFailure
	}
	// Logs go to stderr so table and CSV output stay clean. Run records are
	// only shown when LOG_LEVEL asks for them.
	level := "warn"
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level = v
	}
	logger := log.New(log.Config{Level: log.ParseLevel(level), Format: cfg.LogFormat, Output: stderr})

	in, err := resolveInput(o, set)
	if err != nil {
		fmt.Fprintln(stderr, "payoff:", err)
		return exitUsage
	}

	planner := services.NewPlanner(services.Limits{
		DefaultHorizon:            cfg.DefaultHorizonMonths,
		MaxHorizon:                cfg.MaxHorizonMonths,
		MaxAPR:                    cfg.MaxAPRDecimal(),
		Rounding:                  cfg.Rounding(),
		AllowNegativeAmortization: cfg.AllowNegativeAmortization,
	}, nil, logger)

	vr, err := planner.Validate(in.debts, in.run)
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fmt.Fprintln(stderr, fe.Error())
			}
			return exitInvalid
		}
		fmt.Fprintln(stderr, "payoff:", err)
		return exitFailure
	}
	cli.RenderWarnings(stderr, vr.Warnings)

	if o.compare || len(in.strategies) > 1 {
		return compare(ctx, planner, vr.Set, in, o.format, stdout, stderr)
	}
	return simulate(ctx, planner, cfg, logger, vr.Set, in, o, stdout, stderr)
}

func compare(ctx context.Context, planner *services.Planner, set core.DebtSet, in *input, format string, stdout, stderr io.Writer) int {
	cmp, err := planner.Compare(ctx, set, in.strategies, in.run)
	if err != nil {
		fmt.Fprintln(stderr, "payoff:", err)
		return exitFailure
	}
	if format == "csv" {
		err = csvio.WriteComparison(stdout, cmp)
	} else {
		err = cli.RenderComparison(stdout, cmp)
	}
	if err != nil {
		fmt.Fprintln(stderr, "payoff:", err)
		return exitFailure
	}
	return exitOK
}

func simulate(ctx context.Context, planner *services.Planner, cfg *config.Config, logger *log.Logger, set core.DebtSet, in *input, o *options, stdout, stderr io.Writer) int {
	res, err := planner.Simulate(ctx, set, in.strategies[0], in.run)
	if err != nil {
		fmt.Fprintln(stderr, "payoff:", err)
		return exitFailure
	}

	switch o.format {
	case "csv":
		err = csvio.WriteSchedule(stdout, res)
	default:
		err = cli.RenderSummary(stdout, res.Summary)
		if err == nil && o.schedule {
			fmt.Fprintln(stdout)
			err = cli.RenderSchedule(stdout, res)
		}
	}
	if err != nil {
		fmt.Fprintln(stderr, "payoff:", err)
		return exitFailure
	}

	if title := strings.TrimSpace(o.exportSheet); title != "" {
		sheets, err := export.NewSheetsClient(ctx, export.SheetsConfig{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			SheetName:          cfg.GoogleSheetName,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
		}, logger)
		if err != nil {
			fmt.Fprintln(stderr, "payoff: export:", err)
			return exitFailure
		}
		ref, err := sheets.WriteSchedule(ctx, title, res)
		if err != nil {
			fmt.Fprintln(stderr, "payoff: export:", err)
			return exitFailure
		}
		fmt.Fprintln(stderr, "exported to", ref)
	}
	return exitOK
}
