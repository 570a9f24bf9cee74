package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/catalogrecon/backend/internal/application/analysis"
	"github.com/catalogrecon/backend/internal/bootstrap"
	"github.com/catalogrecon/backend/internal/domain/catalog"
	"github.com/catalogrecon/backend/internal/infrastructure/config"
	"github.com/catalogrecon/backend/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// env bundles what every command needs
type env struct {
	cfg     *config.Config
	log     *zap.Logger
	service *analysis.Service
}

func setup(c *cli.Context) (*env, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logCfg := logger.CLIConfig()
	logCfg.Level = c.String("log-level")
	log, err := logger.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	service, err := bootstrap.NewService(cfg, log, nil)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log, service: service}, nil
}

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Run an analysis and write the report",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "main",
				Aliases:  []string{"m"},
				Usage:    "Catalog export CSV (repeatable)",
				Required: true,
			},
			&cli.StringFlag{Name: "cost", Usage: "Supplier cost CSV"},
			&cli.StringFlag{Name: "stock", Usage: "Stock and sales CSV"},
			&cli.Float64Flag{Name: "shipping", Usage: "Shipping cost per unit (default from config)"},
			&cli.Float64Flag{Name: "misc", Usage: "Miscellaneous cost per unit (default from config)"},
			&cli.StringFlag{Name: "budget", Usage: "Purchase budget; a positive value also writes an order"},
			&cli.StringSliceFlag{
				Name:  "override",
				Usage: "Manual column assignment as file:field=header, e.g. catalog.csv:imported_code=Vendor SKU",
			},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Report destination (default stdout)"},
			&cli.StringFlag{Name: "order-output", Usage: "Order destination (default <output>.order.csv or stdout)"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "csv", Usage: "Report format (csv, json)"},
			&cli.BoolFlag{Name: "progress", Usage: "Print progress to stderr"},
		},
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}
			defer logger.Sync(e.log)

			opts, err := analyzeOptionsFrom(c, e.cfg)
			if err != nil {
				return err
			}

			out, closeOut, err := create(c.String("output"), c.App.Writer)
			if err != nil {
				return err
			}
			defer closeOut()

			orderDest := c.String("order-output")
			if orderDest == "" && c.String("output") != "" {
				orderDest = strings.TrimSuffix(c.String("output"), filepath.Ext(c.String("output"))) + ".order.csv"
			}
			orderOut, closeOrder, err := create(orderDest, c.App.Writer)
			if err != nil {
				return err
			}
			defer closeOrder()
			opts.orders = orderOut

			if c.Bool("progress") {
				opts.progress = func(percent int, message string, _ *analysis.LiveStats) {
					fmt.Fprintf(c.App.ErrWriter, "[%3d%%] %s\n", percent, message)
				}
			}
			return runAnalyze(c.Context, e.service, opts, out, c.App.ErrWriter)
		},
	}
}

func detectCommand() *cli.Command {
	return &cli.Command{
		Name:      "detect",
		Usage:     "Show how a file's headers map to the standard fields",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "role", Aliases: []string{"r"}, Value: analysis.RoleMain, Usage: "Alias table (main, cost, stock)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("detect needs exactly one FILE argument")
			}
			role := c.String("role")
			switch role {
			case analysis.RoleMain, analysis.RoleCost, analysis.RoleStock:
			default:
				return fmt.Errorf("unknown role %q (want main, cost or stock)", role)
			}

			e, err := setup(c)
			if err != nil {
				return err
			}
			defer logger.Sync(e.log)
			return runDetect(c, e.service, role, c.Args().First())
		},
	}
}

func patternsCommand() *cli.Command {
	return &cli.Command{
		Name:  "patterns",
		Usage: "Print the header aliases in use as JSON",
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}
			p := e.service.Pipeline().Patterns()
			return writeJSON(c.App.Writer, map[string]catalog.PatternTable{
				analysis.RoleMain:  p.Main,
				analysis.RoleCost:  p.Cost,
				analysis.RoleStock: p.Stock,
			})
		},
	}
}

func runDetect(c *cli.Context, svc *analysis.Service, role, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	tm, err := svc.DetectColumns(c.Context, role, analysis.NamedReader{Name: filepath.Base(path), Reader: f})
	if err != nil {
		return err
	}
	return writeDetect(c.App.Writer, tm)
}

func writeDetect(w io.Writer, tm analysis.TableMapping) error {
	fmt.Fprintf(w, "%s (%s, %d rows)\n", tm.Source, tm.Role, tm.Rows)
	for _, f := range catalog.AllFields() {
		if h, ok := tm.Mapping[f.String()]; ok {
			fmt.Fprintf(w, "  %-24s <- %s\n", f, h)
		}
	}
	if len(tm.Missing) > 0 {
		names := make([]string, len(tm.Missing))
		for i, f := range tm.Missing {
			names[i] = f.String()
		}
		fmt.Fprintf(w, "missing: %s\n", strings.Join(names, ", "))
	}
	for _, s := range tm.Skipped {
		fmt.Fprintf(w, "skipped row %d: %s\n", s.Row, s.Message)
	}
	return nil
}

// create opens path for writing, or returns fallback when path is empty
func create(path string, fallback io.Writer) (io.Writer, func(), error) {
	if path == "" {
		return fallback, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// analyzeOptions are the parsed inputs of one analyze run
type analyzeOptions struct {
	main      []string
	cost      string
	stock     string
	shipping  float64
	misc      float64
	budget    decimal.Decimal
	overrides map[string]map[catalog.StandardField]string
	format    string
	orders    io.Writer
	progress  analysis.ProgressFunc
}

func analyzeOptionsFrom(c *cli.Context, cfg *config.Config) (analyzeOptions, error) {
	opts := analyzeOptions{
		main:     c.StringSlice("main"),
		cost:     c.String("cost"),
		stock:    c.String("stock"),
		shipping: cfg.Pipeline.ShippingPerUnit,
		misc:     cfg.Pipeline.MiscPerUnit,
		budget:   decimal.NewFromFloat(cfg.Pipeline.DefaultBudget),
		format:   c.String("format"),
	}
	if c.IsSet("shipping") {
		opts.shipping = c.Float64("shipping")
	}
	if c.IsSet("misc") {
		opts.misc = c.Float64("misc")
	}
	if raw := c.String("budget"); raw != "" {
		b, err := decimal.NewFromString(raw)
		if err != nil {
			return opts, fmt.Errorf("--budget: %w", err)
		}
		opts.budget = b
	}
	switch opts.format {
	case "csv", "json":
	default:
		return opts, fmt.Errorf("--format must be csv or json, got %q", opts.format)
	}

	overrides, err := parseOverrideFlags(c.StringSlice("override"))
	if err != nil {
		return opts, err
	}
	opts.overrides = overrides
	return opts, nil
}

// parseOverrideFlags parses file:field=header assignments
func parseOverrideFlags(values []string) (map[string]map[catalog.StandardField]string, error) {
	out := make(map[string]map[catalog.StandardField]string)
	for _, v := range values {
		file, assignment, ok := strings.Cut(v, ":")
		if !ok {
			return nil, fmt.Errorf("--override %q: want file:field=header", v)
		}
		key, header, ok := strings.Cut(assignment, "=")
		if !ok {
			return nil, fmt.Errorf("--override %q: want file:field=header", v)
		}
		f, ok := catalog.ParseField(key)
		if !ok {
			return nil, fmt.Errorf("--override %q: unknown field %q", v, key)
		}
		if out[file] == nil {
			out[file] = make(map[catalog.StandardField]string)
		}
		out[file][f] = strings.TrimSpace(header)
	}
	return out, nil
}
