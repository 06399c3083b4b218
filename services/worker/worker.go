package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sjsage522/propertyworker/helpers"
	"sjsage522/propertyworker/internal/scraper"
	"sjsage522/propertyworker/logger"
	"sjsage522/propertyworker/services/publisher"
	"sjsage522/propertyworker/services/sink"
)

// Harvester retrieves and normalizes one listing page.
type Harvester interface {
	HarvestPage(pageNo int) ([]scraper.Project, scraper.RegistrationStats)
}

// Params wires a Worker. Publisher and Postgres are optional.
type Params struct {
	Harvester Harvester
	CSV       *sink.CSVSink
	Snapshot  *sink.JSONSink
	Publisher publisher.Publisher
	Postgres  *sink.PostgresSink
	Stats     *scraper.RunStats
	StartPage int
	EndPage   int
	BatchSize int
	PageDelay time.Duration
}

// Worker drives the page-by-page harvesting loop: batch accumulation, CSV
// flushes at the batch threshold, politeness pauses, progress reporting and
// end-of-run finalization.
type Worker struct {
	harvester Harvester
	csv       *sink.CSVSink
	snapshot  *sink.JSONSink
	pub       publisher.Publisher
	pg        *sink.PostgresSink
	stats     *scraper.RunStats
	startPage int
	endPage   int
	batchSize int
	pageDelay time.Duration
	log       *logger.Logger
}

// NewWorker creates a new worker
func NewWorker(p Params) *Worker {
	return &Worker{
		harvester: p.Harvester,
		csv:       p.CSV,
		snapshot:  p.Snapshot,
		pub:       p.Publisher,
		pg:        p.Postgres,
		stats:     p.Stats,
		startPage: p.StartPage,
		endPage:   p.EndPage,
		batchSize: p.BatchSize,
		pageDelay: p.PageDelay,
		log:       logger.ForWorker(),
	}
}

// Run walks the page range in order and returns the full accumulated corpus.
// Cancelling the context stops the loop between pages; finalization always
// runs with whatever has accumulated.
func (w *Worker) Run(ctx context.Context) []scraper.Project {
	w.stats.Start()

	w.log.Info().
		Int("start_page", w.startPage).
		Int("end_page", w.endPage).
		Int("batch_size", w.batchSize).
		Msg("Starting scrape run")

	if w.startPage == 1 {
		if backup, ok := w.csv.BackupExisting(); ok {
			w.log.Info().Str("backup", backup).Msg("Existing CSV backed up")
		}
	}

	var all, batch []scraper.Project

loop:
	for pageNo := w.startPage; pageNo <= w.endPage; pageNo++ {
		select {
		case <-ctx.Done():
			w.log.Warn().Int("page", pageNo).Msg("Run interrupted")
			break loop
		default:
		}

		projects, regStats := w.harvester.HarvestPage(pageNo)
		w.stats.AddRegistration(regStats)

		if len(projects) > 0 {
			all = append(all, projects...)
			batch = append(batch, projects...)

			if len(batch) >= w.batchSize {
				// Only the run's very first flush may truncate: the flush
				// must land on the start page with the corpus still within
				// one batch. Everything after appends.
				mode := sink.ModeAppend
				if pageNo == w.startPage && len(all) <= w.batchSize {
					mode = sink.ModeWrite
				}
				if w.csv.WriteBatch(batch, mode) {
					w.log.Info().Int("count", len(batch)).Msg("Batch written")
				}
				batch = nil
			}

			w.publish(projects)
		}

		w.logProgress(pageNo, len(projects), regStats)

		if pageNo < w.endPage {
			select {
			case <-ctx.Done():
				w.log.Warn().Int("page", pageNo).Msg("Run interrupted")
				break loop
			case <-time.After(w.pageDelay):
			}
		}
	}

	w.finalize(all, batch)
	return all
}

// finalize flushes the remaining batch and writes the full-corpus outputs.
// Failures are logged, never fatal.
func (w *Worker) finalize(all, batch []scraper.Project) {
	if len(batch) > 0 {
		mode := sink.ModeWrite
		if len(all) > 0 {
			mode = sink.ModeAppend
		}
		if w.csv.WriteBatch(batch, mode) {
			w.log.Info().Int("count", len(batch)).Msg("Final batch written")
		}
	}

	if err := w.snapshot.WriteSnapshot(all); err == nil {
		w.log.Info().Str("path", w.snapshot.Path()).Msg("JSON snapshot saved")
	}

	if w.pg != nil {
		if err := w.pg.Write(all); err != nil {
			w.log.Error().Err(err).Msg("Postgres write failed")
		} else {
			w.log.Info().Int("count", len(all)).Msg("Corpus mirrored to Postgres")
		}
	}

	if w.pub != nil {
		if err := w.pub.TrimStreams(); err != nil {
			w.log.Error().Err(err).Msg("Stream trimming failed")
		}
	}
}

// publish sends each project to the record stream, if one is configured.
func (w *Worker) publish(projects []scraper.Project) {
	if w.pub == nil {
		return
	}
	for _, p := range projects {
		data, err := json.Marshal(p)
		if err != nil {
			w.log.Error().Err(err).Msg("Project marshal failed")
			continue
		}
		if err := w.pub.Publish("project", data); err != nil {
			w.log.Error().Err(err).Msg("Project publish failed")
		}
	}
}

// logProgress emits the per-page progress line with cumulative totals,
// throughput and a projected remaining time.
func (w *Worker) logProgress(pageNo, pageProjects int, regStats scraper.RegistrationStats) {
	elapsed := w.stats.Elapsed()

	pagesPerMinute := 0.0
	if elapsed > 0 {
		pagesPerMinute = float64(pageNo) / elapsed.Minutes()
	}

	var remaining time.Duration
	if pageNo > 0 {
		estimated := time.Duration(float64(elapsed) * float64(w.endPage) / float64(pageNo))
		remaining = estimated - elapsed
	}

	w.log.Info().
		Int("page", pageNo).
		Int("total_pages", w.endPage).
		Int("page_projects", pageProjects).
		Int("total_scraped", w.stats.Scraped()).
		Int("total_failed", w.stats.Failed()).
		Int("rera_success", regStats.Success).
		Int("rera_failed", regStats.Failed).
		Str("elapsed", helpers.FormatDuration(elapsed)).
		Str("speed", fmt.Sprintf("%.1f pages/min", pagesPerMinute)).
		Str("eta", helpers.FormatDuration(remaining)).
		Msg("Progress")
}

// LogSummary emits the end-of-run report.
func (w *Worker) LogSummary() {
	elapsed := w.stats.Elapsed()
	reg := w.stats.Registration()

	successRate := 0.0
	if reg.Total() > 0 {
		successRate = float64(reg.Success) / float64(reg.Total()) * 100
	}

	speed := 0.0
	if elapsed > 0 {
		speed = float64(w.stats.Scraped()) / elapsed.Minutes()
	}

	w.log.Info().
		Int("total_scraped", w.stats.Scraped()).
		Int("total_failed", w.stats.Failed()).
		Int("rera_success", reg.Success).
		Int("rera_failed", reg.Failed).
		Str("rera_success_rate", fmt.Sprintf("%.1f%%", successRate)).
		Str("total_time", helpers.FormatDuration(elapsed)).
		Str("avg_speed", fmt.Sprintf("%.1f projects/min", speed)).
		Str("csv_file", w.csv.Path()).
		Str("json_file", w.snapshot.Path()).
		Msg("Scraping completed")

	if count, err := w.csv.RecordCount(); err != nil {
		w.log.Error().Err(err).Msg("Could not read CSV file for verification")
	} else {
		w.log.Info().Int("csv_records", count).Msg("CSV record count (excluding header)")
	}
}
