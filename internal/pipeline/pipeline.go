// Package pipeline orchestrates the aggregation run: read every configured
// source, map, reconcile, and expose the reconciled dataset with its report.
package pipeline

import (
	"context"
	"errors"
	"os"
	"sync"

	"vivaa/goldbook/internal/cashbookreader"
	"vivaa/goldbook/internal/config"
	"vivaa/goldbook/internal/decryptor"
	"vivaa/goldbook/internal/legacyreader"
	"vivaa/goldbook/internal/logging"
	"vivaa/goldbook/internal/mapper"
	"vivaa/goldbook/internal/metrics"
	"vivaa/goldbook/internal/models"
	"vivaa/goldbook/internal/reconciler"
	"vivaa/goldbook/internal/store"

	"github.com/shopspring/decimal"
)

// ErrNoData signals that not a single configured source could be read. The
// report still carries the per-source failures, so the caller can tell
// "no sources loaded" apart from "no matching rows".
var ErrNoData = errors.New("no readable sources")

// Pipeline runs the full aggregation. Each run re-reads every source from
// scratch; nothing survives across runs.
type Pipeline struct {
	cfg        *config.Config
	logger     logging.Logger
	mapper     *mapper.Mapper
	categories *store.CategoryStore
}

// New loads the field dictionary and category store and wires the mapper.
func New(cfg *config.Config, logger logging.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}

	dict, err := mapper.LoadDictionary(cfg.Dictionary.FieldsFile)
	if err != nil {
		return nil, err
	}
	categories, err := store.Load(cfg.Dictionary.CategoriesFile, cfg.Dictionary.FixedCostsFile, logger)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:        cfg,
		logger:     logger,
		mapper:     mapper.New(dict, categories, logger),
		categories: categories,
	}, nil
}

// Dataset is the outcome of one pipeline run. Transactions are immutable
// once produced and safe to share across concurrent metric calls.
type Dataset struct {
	Transactions []models.Transaction
	Report       *models.ReconciliationReport

	opts       metrics.Options
	fixedCosts []metrics.FixedCostEntry
	logger     logging.Logger

	engineOnce sync.Once
	engine     *metrics.Engine
}

// Metrics returns the metric engine for this dataset, constructed lazily on
// first use: a run that only needs the report never pays for it.
func (d *Dataset) Metrics() *metrics.Engine {
	d.engineOnce.Do(func() {
		d.engine = metrics.NewEngine(d.Transactions, d.opts, d.logger)
	})
	return d.engine
}

// StaticFixedCosts returns the configured static fixed-cost entries in the
// shape FixedCostBreakdown accepts.
func (d *Dataset) StaticFixedCosts() []metrics.FixedCostEntry {
	return d.fixedCosts
}

// sourceOutcome is one source job's contribution. Outcomes are collected in
// a slice indexed by job order, so results concatenate in configuration
// order regardless of goroutine scheduling. Merge resolution is
// first-seen-wins, so a stable read order is what makes reruns reproducible.
type sourceOutcome struct {
	results  []mapper.Result
	failures []sourceFailure
}

type sourceFailure struct {
	source string
	err    error
}

// Run reads all configured sources, continuing past individual failures,
// then reconciles the mapped set. It returns ErrNoData when no source could
// be opened at all; the returned dataset still carries the report.
func (p *Pipeline) Run(ctx context.Context) (*Dataset, error) {
	jobs := p.buildJobs()

	outcomes := make([]sourceOutcome, len(jobs))
	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		go func(i int, job sourceJob) {
			defer wg.Done()
			outcomes[i] = job.run(ctx)
		}(i, job)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &models.ReconciliationReport{}
	var all []models.Transaction
	readable := 0
	for _, outcome := range outcomes {
		opened := len(outcome.results) > 0
		for _, f := range outcome.failures {
			report.AddSourceFailure(f.source, f.err)
		}
		for _, res := range outcome.results {
			report.RowsRead += res.RowsRead
			for _, rej := range res.Rejections {
				report.AddRejection(rej.RowRef, rej.Reason, rej.Detail)
			}
			all = append(all, res.Transactions...)
		}
		if opened {
			readable++
		}
	}
	report.RowsMapped = len(all)

	dataset := &Dataset{
		Report: report,
		opts: metrics.Options{
			SmoothingWindow: p.cfg.Metrics.SmoothingWindow,
			SmoothingOrder:  p.cfg.Metrics.SmoothingOrder,
			BucketWidth:     decimal.NewFromFloat(p.cfg.Metrics.HistogramBucketWidth),
		},
		fixedCosts: p.staticFixedCosts(),
		logger:     p.logger,
	}

	if readable == 0 {
		p.logger.Error("No readable sources",
			logging.F("failures", len(report.SourceFailures)))
		return dataset, ErrNoData
	}

	dataset.Transactions = reconciler.New(p.logger).Reconcile(all, report)

	p.logger.Info("Pipeline run complete",
		logging.F("rows_read", report.RowsRead),
		logging.F("rows_mapped", report.RowsMapped),
		logging.F("transactions", len(dataset.Transactions)),
		logging.F("rejected", report.RowsRejected))

	return dataset, nil
}

func (p *Pipeline) staticFixedCosts() []metrics.FixedCostEntry {
	fixed := p.categories.FixedCosts()
	out := make([]metrics.FixedCostEntry, 0, len(fixed))
	for _, fc := range fixed {
		out = append(out, metrics.FixedCostEntry{
			Category:    fc.Category,
			Subcategory: fc.Subcategory,
			Amount:      fc.Annual,
		})
	}
	return out
}

// sourceJob reads one physical source to completion. Jobs share no mutable
// state and run concurrently; the barrier before reconciliation is the
// WaitGroup in Run. A cancelled context makes a job return early with an
// empty outcome; Run reports the cancellation itself after the barrier.
type sourceJob struct {
	run func(ctx context.Context) sourceOutcome
}

func (p *Pipeline) buildJobs() []sourceJob {
	var jobs []sourceJob
	for _, src := range p.cfg.Sources.Legacy {
		src := src
		jobs = append(jobs, sourceJob{
			run: func(ctx context.Context) sourceOutcome {
				return p.readLegacy(ctx, src)
			},
		})
	}
	for _, src := range p.cfg.Sources.Cashbooks {
		src := src
		jobs = append(jobs, sourceJob{
			run: func(ctx context.Context) sourceOutcome {
				return p.readCashbook(ctx, src)
			},
		})
	}
	return jobs
}

func (p *Pipeline) readLegacy(ctx context.Context, src config.LegacySource) sourceOutcome {
	var outcome sourceOutcome
	if ctx.Err() != nil {
		return outcome
	}

	reader, err := legacyreader.Open(src.Path, src.Tables, src.KeyColumn, p.logger)
	if err != nil {
		p.logger.WithError(err).Warn("Skipping legacy source", logging.F("file", src.Path))
		outcome.failures = append(outcome.failures, sourceFailure{source: src.Path, err: err})
		return outcome
	}

	res, err := p.mapper.MapAll(reader)
	if err != nil {
		outcome.failures = append(outcome.failures, sourceFailure{source: src.Path, err: err})
	}
	outcome.results = append(outcome.results, res)
	return outcome
}

func (p *Pipeline) readCashbook(ctx context.Context, src config.CashbookSource) sourceOutcome {
	var outcome sourceOutcome
	if ctx.Err() != nil {
		return outcome
	}

	passphrase := ""
	if src.PassphraseEnv != "" {
		passphrase = os.Getenv(src.PassphraseEnv)
	}

	workbook, err := decryptor.UnlockFile(src.Path, passphrase, p.logger)
	if err != nil {
		p.logger.WithError(err).Warn("Skipping cashbook source", logging.F("file", src.Path))
		outcome.failures = append(outcome.failures, sourceFailure{source: src.Path, err: err})
		return outcome
	}
	// Closing the workbook releases the in-memory cleartext; it must not
	// outlive sheet parsing.
	defer func() {
		if err := workbook.Close(); err != nil {
			p.logger.WithError(err).Warn("Failed to close workbook", logging.F("file", src.Path))
		}
	}()

	for _, sheet := range src.Sheets {
		if ctx.Err() != nil {
			return outcome
		}
		reader, err := cashbookreader.New(workbook, src.Path, sheet.Name, sheet.HeaderOffset, p.logger)
		if err != nil {
			p.logger.WithError(err).Warn("Skipping cashbook sheet",
				logging.F("file", src.Path),
				logging.F("sheet", sheet.Name))
			outcome.failures = append(outcome.failures, sourceFailure{
				source: src.Path + ":" + sheet.Name,
				err:    err,
			})
			continue
		}
		res, err := p.mapper.MapAll(reader)
		if err != nil {
			outcome.failures = append(outcome.failures, sourceFailure{
				source: src.Path + ":" + sheet.Name,
				err:    err,
			})
		}
		outcome.results = append(outcome.results, res)
	}
	return outcome
}
