package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/catalogrecon/backend/internal/application/analysis"
	"github.com/catalogrecon/backend/internal/domain/catalog"
	"github.com/catalogrecon/backend/internal/infrastructure/export"
	"github.com/catalogrecon/backend/internal/interfaces/http/dto"
)

// runAnalyze opens the input files, runs the analysis and writes the
// report to out. File-level problems are reported on errOut.
func runAnalyze(ctx context.Context, svc *analysis.Service, opts analyzeOptions, out, errOut io.Writer) error {
	var files []*os.File
	defer func() {
		for _, f := range files {
			_ = f.Close()
		}
	}()
	open := func(path string) (*analysis.NamedReader, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
		name := filepath.Base(path)
		return &analysis.NamedReader{Name: name, Reader: f, Overrides: opts.overrides[name]}, nil
	}

	set := analysis.FileSet{
		ShippingPerUnit: opts.shipping,
		MiscPerUnit:     opts.misc,
		Progress:        opts.progress,
	}
	for _, path := range opts.main {
		nr, err := open(path)
		if err != nil {
			return err
		}
		set.Main = append(set.Main, *nr)
	}
	var err error
	if opts.cost != "" {
		if set.Cost, err = open(opts.cost); err != nil {
			return err
		}
	}
	if opts.stock != "" {
		if set.Stock, err = open(opts.stock); err != nil {
			return err
		}
	}

	res, err := svc.AnalyzeFiles(ctx, set)
	if err != nil {
		return err
	}
	for _, fe := range res.FileErrors {
		fmt.Fprintf(errOut, "warning: skipped %s (%s): %v\n", fe.File, fe.Code(), fe.Err)
	}
	for _, tm := range res.Mappings {
		if len(tm.Missing) > 0 {
			fmt.Fprintf(errOut, "warning: %s has no column for %v\n", tm.Source, tm.Missing)
		}
	}

	var order *catalog.Order
	if opts.budget.IsPositive() {
		if order, err = svc.BuildOrder(ctx, res.Records, opts.budget); err != nil {
			return err
		}
	}

	if opts.format == "json" {
		return writeJSON(out, dto.NewAnalysisResponse(res, order))
	}

	orders := opts.orders
	if orders == nil {
		orders = out
	}
	w := export.NewCSVWriter(out, export.WithOrderWriter(orders))
	if err := w.WriteRecords(ctx, res.Records, res.ExtraColumns, res.Annotations); err != nil {
		return err
	}
	if order != nil {
		return w.WriteOrder(ctx, order)
	}
	return nil
}
