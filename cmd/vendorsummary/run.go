// Package main wires the vendor summary run end-to-end: open the source
// store, probe it, aggregate and merge (in process or pushed down to the
// store), derive the reporting columns and replace the destination. This
// file keeps the CLI layer thin: it depends on storage-agnostic interfaces
// and never imports backend packages directly.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"vendorsummary/internal/config"
	"vendorsummary/internal/metrics"
	"vendorsummary/internal/source"
	"vendorsummary/internal/storage"
	"vendorsummary/internal/store"
	"vendorsummary/internal/summary"
)

// Function variables used to introduce test seams.
// In production these point to real implementations; tests can override them.
var (
	openStoreFn = store.Open
	newSinkFn   = storage.New
)

// runResult is what a successful run reports.
type runResult struct {
	Rows        int64
	Fingerprint uint64
}

// runner carries the per-run dependencies. It holds no state between runs.
type runner struct {
	cfg config.Config
	log zerolog.Logger
	rec *metrics.Recorder
}

func newRunner(cfg config.Config, log zerolog.Logger, rec *metrics.Recorder) *runner {
	if rec == nil {
		rec = metrics.NewRecorder(cfg.Job, nil)
	}
	return &runner{cfg: cfg, log: log, rec: rec}
}

// step runs fn as a named stage, logging its start and completion and
// recording its outcome and duration. fn adds its own fields to the
// completion event; the event is dropped when fn fails.
func (r *runner) step(name string, fn func(ev *zerolog.Event) error) error {
	r.log.Info().Str("stage", name).Msg("stage started")
	ev := r.log.Info()
	start := time.Now()
	err := fn(ev)
	elapsed := time.Since(start)
	r.rec.RecordStep(name, err, elapsed)
	if err != nil {
		ev.Discard()
		r.log.Error().Err(err).Str("stage", name).Dur("elapsed", elapsed.Truncate(time.Millisecond)).Msg("stage failed")
		return err
	}
	ev.Str("stage", name).Dur("elapsed", elapsed.Truncate(time.Millisecond)).Msg("stage completed")
	return nil
}

// run executes one full refresh of the summary table.
func (r *runner) run(ctx context.Context) (runResult, error) {
	var res runResult
	started := time.Now()

	r.log.Info().
		Str("job", r.cfg.Job).
		Str("engine", r.cfg.Engine).
		Str("source", r.cfg.Source.Kind).
		Str("sink", r.cfg.Sink.Kind).
		Str("table", r.cfg.Sink.Table).
		Msg("run started")

	var st *store.Store
	err := r.step("open", func(ev *zerolog.Event) error {
		var err error
		st, err = openStoreFn(ctx, r.cfg.Source.Kind, r.cfg.Source.DSN)
		ev.Str("kind", r.cfg.Source.Kind)
		return err
	})
	if err != nil {
		return res, err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			r.log.Warn().Err(cerr).Msg("close source store")
		}
	}()

	reader := source.NewReader(st, source.Tables{
		Purchases:      r.cfg.Source.Tables.Purchases,
		PurchasePrices: r.cfg.Source.Tables.PurchasePrices,
		Sales:          r.cfg.Source.Tables.Sales,
		VendorInvoice:  r.cfg.Source.Tables.VendorInvoice,
	})
	if err := r.step("probe", func(ev *zerolog.Event) error {
		tbls := reader.Tables()
		ev.Str("purchases", tbls.Purchases).Str("purchase_prices", tbls.PurchasePrices).
			Str("sales", tbls.Sales).Str("vendor_invoice", tbls.VendorInvoice)
		return reader.Probe(ctx)
	}); err != nil {
		return res, err
	}

	merged, err := r.merged(ctx, reader)
	if err != nil {
		return res, err
	}
	r.preview("merged", func(n int) string { return summary.PreviewMerged(merged, n) })

	var rows []summary.Row
	if err := r.step("derive", func(ev *zerolog.Event) error {
		var err error
		rows, err = summary.Derive(merged)
		ev.Int("rows", len(rows))
		return err
	}); err != nil {
		return res, err
	}
	r.preview("summary", func(n int) string { return summary.PreviewRows(rows, n) })

	t := summary.ToTable(r.cfg.Sink.Table, rows)
	res.Fingerprint = summary.Fingerprint(t)

	if err := r.step("persist", func(ev *zerolog.Event) error {
		sink, err := newSinkFn(ctx, storage.Config{
			Kind:        r.cfg.Sink.Kind,
			DSN:         r.cfg.Sink.DSN,
			Table:       r.cfg.Sink.Table,
			Path:        r.cfg.Sink.Path,
			Compression: r.cfg.Sink.Compression,
			Store:       st,
		})
		if err != nil {
			return err
		}
		defer func() {
			if cerr := sink.Close(); cerr != nil {
				r.log.Warn().Err(cerr).Msg("close sink")
			}
		}()
		res.Rows, err = sink.Replace(ctx, t)
		ev.Str("kind", r.cfg.Sink.Kind).Str("table", r.cfg.Sink.Table).Int64("rows", res.Rows)
		return err
	}); err != nil {
		return res, err
	}
	r.rec.RecordRows("persisted", res.Rows)
	r.rec.RecordSuccess(res.Rows)

	purchase, sales, profit := totals(rows)
	r.log.Info().
		Int64("rows", res.Rows).
		Str("total_purchase_dollars", purchase.StringFixed(2)).
		Str("total_sales_dollars", sales.StringFixed(2)).
		Str("gross_profit", profit.StringFixed(2)).
		Str("fingerprint", fmt.Sprintf("%016x", res.Fingerprint)).
		Dur("elapsed", time.Since(started).Truncate(time.Millisecond)).
		Msg("run completed")
	return res, nil
}

// merged produces the merged vendor-brand rows with the configured engine.
func (r *runner) merged(ctx context.Context, reader *source.Reader) ([]summary.MergedRow, error) {
	var merged []summary.MergedRow

	if r.cfg.Engine == config.EngineSQL {
		err := r.step("pushdown", func(ev *zerolog.Event) error {
			r.log.Debug().Str("sql", reader.MergedQuery()).Msg("pushdown query")
			var err error
			merged, err = reader.Merged(ctx)
			ev.Int("rows", len(merged))
			return err
		})
		r.rec.RecordRows("merged", int64(len(merged)))
		return merged, err
	}

	var agg summary.Aggregates
	err := r.step("aggregate", func(ev *zerolog.Event) error {
		ds, stats, err := reader.Load(ctx)
		if err != nil {
			return err
		}
		r.recordSkipped(stats)
		agg = summary.Aggregate(ds)
		r.rec.RecordRows("purchase_groups", int64(len(agg.Purchases)))
		r.rec.RecordRows("sales_groups", int64(len(agg.Sales)))
		r.rec.RecordRows("freight_groups", int64(len(agg.Freight)))
		ev.Int("purchases", len(ds.Purchases)).Int("prices", len(ds.Prices)).
			Int("sales", len(ds.Sales)).Int("freight", len(ds.Freight)).
			Int("purchase_groups", len(agg.Purchases)).Int("sales_groups", len(agg.Sales)).
			Int("freight_groups", len(agg.Freight))
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = r.step("merge", func(ev *zerolog.Event) error {
		merged = summary.Merge(agg)
		ev.Int("rows", len(merged))
		return nil
	})
	r.rec.RecordRows("merged", int64(len(merged)))
	return merged, err
}

func (r *runner) recordSkipped(s source.LoadStats) {
	r.rec.RecordRows("skipped_purchases", int64(s.SkippedPurchases))
	r.rec.RecordRows("skipped_prices", int64(s.SkippedPrices))
	r.rec.RecordRows("skipped_sales", int64(s.SkippedSales))
	r.rec.RecordRows("skipped_freight", int64(s.SkippedFreight))
	if n := s.SkippedPurchases + s.SkippedPrices + s.SkippedSales + s.SkippedFreight; n > 0 {
		r.log.Debug().
			Int("purchases", s.SkippedPurchases).Int("prices", s.SkippedPrices).
			Int("sales", s.SkippedSales).Int("freight", s.SkippedFreight).
			Msg("skipped rows with NULL keys")
	}
}

// preview logs a rendered head of a table at debug level. Rows < 0 disables
// previews.
func (r *runner) preview(name string, render func(n int) string) {
	n := r.cfg.Preview.Rows
	if n < 0 {
		return
	}
	ev := r.log.Debug()
	if !ev.Enabled() {
		return
	}
	ev.Str("table", name).Int("rows", n).Str("data", "\n"+render(n)).Msg("preview")
}

func totals(rows []summary.Row) (purchase, sales, profit decimal.Decimal) {
	purchase, sales, profit = decimal.Zero, decimal.Zero, decimal.Zero
	for _, r := range rows {
		purchase = purchase.Add(r.TotalPurchaseDollars)
		sales = sales.Add(r.TotalSalesDollars)
		profit = profit.Add(r.GrossProfit)
	}
	return purchase, sales, profit
}
