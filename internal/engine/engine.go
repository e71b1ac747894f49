// Package engine turns a dataset into per-patient heart failure
// hospitalization summaries.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fontanka/edc-check/internal/common"
	"github.com/fontanka/edc-check/internal/dedup"
	"github.com/fontanka/edc-check/internal/extraction"
	"github.com/fontanka/edc-check/internal/model"
	"github.com/fontanka/edc-check/internal/source"
	"github.com/fontanka/edc-check/internal/window"
)

// ErrNilContext is returned when a nil context is passed.
var ErrNilContext = errors.New("context cannot be nil")

// Config holds configuration options for the engine.
type Config struct {
	// Progress is called after each patient of GetAllPatientsSummary.
	Progress      func(done, total int)
	DedupStrategy dedup.Strategy
	Horizons      window.Horizons
	// Workers bounds the patients summarized concurrently. Values below 2
	// run sequentially.
	Workers int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Horizons:      window.DefaultHorizons(),
		DedupStrategy: dedup.StrategyTerm,
		Workers:       1,
	}
}

// Engine aggregates extracted, deduplicated and reviewed events into patient
// summaries. Summaries are recomputed on every call.
type Engine struct {
	dataset   *source.Dataset
	extractor *extraction.Extractor
	dedup     *dedup.Deduplicator
	overrides Overrides
	config    Config
}

// New creates an engine. overrides may be nil.
func New(dataset *source.Dataset, classifier Classifier, overrides Overrides, config Config) *Engine {
	def := window.DefaultHorizons()
	if config.Horizons.ShortDays <= 0 {
		config.Horizons.ShortDays = def.ShortDays
	}
	if config.Horizons.LongDays <= 0 {
		config.Horizons.LongDays = def.LongDays
	}
	if config.Horizons.PostListDays <= 0 {
		config.Horizons.PostListDays = def.PostListDays
	}
	if config.DedupStrategy == "" {
		config.DedupStrategy = dedup.StrategyTerm
	}

	return &Engine{
		dataset:   dataset,
		extractor: extraction.NewExtractor(dataset, classifier),
		dedup:     dedup.New(classifier, config.DedupStrategy),
		overrides: overrides,
		config:    config,
	}
}

// Dataset returns the dataset the engine reads.
func (e *Engine) Dataset() *source.Dataset {
	return e.dataset
}

// GetPatientSummary computes the summary of one patient.
func (e *Engine) GetPatientSummary(ctx context.Context, patientID string) (*model.PatientSummary, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	patientID = source.NormalizePatientID(patientID)
	if !e.dataset.HasPatient(patientID) {
		return nil, fmt.Errorf("patient %q: %w", patientID, common.ErrNotFound)
	}

	summary := &model.PatientSummary{PatientID: patientID}
	treatment, hasTreatment := e.dataset.TreatmentDate(patientID)
	if hasTreatment {
		summary.TreatmentDate = window.FormatDate(treatment)
	} else {
		slog.Debug("No treatment date, counts stay at zero", "patient_id", patientID)
	}

	pre := e.dedup.Deduplicate(e.extractor.ExtractPre(patientID))
	post := e.extractor.ExtractPost(patientID)

	summary.PreEvents = e.review(patientID, model.PeriodPre, e.listed(pre, treatment, hasTreatment, true))
	summary.PostEvents = e.review(patientID, model.PeriodPost, e.listed(post, treatment, hasTreatment, false))

	if hasTreatment {
		summary.PreCount6M, summary.PreCount1Y = e.count(summary.PreEvents, treatment, true)
		summary.PostCount6M, summary.PostCount1Y = e.count(summary.PostEvents, treatment, false)
	}

	return summary, nil
}

// listed keeps the events shown for a period: undated events and events in
// the period's listing window. Without a treatment date every event is kept.
func (e *Engine) listed(events []model.HFEvent, treatment time.Time, hasTreatment, preTreatment bool) []model.HFEvent {
	if !hasTreatment {
		return events
	}

	kept := events[:0:0]
	for _, event := range events {
		m := e.config.Horizons.Classify(event.Date, treatment, preTreatment)
		if !m.Dated || m.InListing {
			kept = append(kept, event)
		}
	}
	return kept
}

func (e *Engine) review(patientID string, period model.Period, events []model.HFEvent) []model.HFEvent {
	if e.overrides == nil {
		return events
	}
	return e.overrides.Apply(patientID, period, events)
}

// count returns the number of distinct dates among included events inside
// the short and long horizons. Manual events count toward the long horizon
// whatever their date; undated ones count once each.
func (e *Engine) count(events []model.HFEvent, treatment time.Time, preTreatment bool) (short, long int) {
	shortKeys := make(map[string]struct{})
	longKeys := make(map[string]struct{})

	for _, event := range events {
		if !event.IsIncluded {
			continue
		}

		m := e.config.Horizons.Classify(event.Date, treatment, preTreatment)
		key := "id:" + event.EventID
		if m.Dated {
			key = window.FormatDate(m.Date)
		}

		if m.InShort {
			shortKeys[key] = struct{}{}
		}
		if m.InLong || event.IsManual {
			longKeys[key] = struct{}{}
		}
	}

	return len(shortKeys), len(longKeys)
}

// GetAllPatientsSummary summarizes every patient of the main table in patient
// id order. A patient that fails is logged and left out; cancellation stops
// the run and returns what was finished along with the context error.
func (e *Engine) GetAllPatientsSummary(ctx context.Context) ([]model.PatientSummary, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}

	ids := e.dataset.PatientIDs()
	slog.Info("Summarizing patients", "count", len(ids), "workers", max(e.config.Workers, 1))

	results := make([]*model.PatientSummary, len(ids))
	var done int
	var mu sync.Mutex
	finish := func() {
		mu.Lock()
		done++
		n := done
		mu.Unlock()
		if e.config.Progress != nil {
			e.config.Progress(n, len(ids))
		}
	}

	summarize := func(i int) {
		summary, err := e.GetPatientSummary(ctx, ids[i])
		if err != nil {
			if ctx.Err() == nil {
				slog.Error("Failed to summarize patient", "patient_id", ids[i], "error", err)
			}
		} else {
			results[i] = summary
		}
		finish()
	}

	if e.config.Workers < 2 {
		for i := range ids {
			select {
			case <-ctx.Done():
				return collect(results), ctx.Err()
			default:
			}
			summarize(i)
		}
		return collect(results), nil
	}

	work := make(chan int)
	var wg sync.WaitGroup
	for range e.config.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				summarize(i)
			}
		}()
	}

feed:
	for i := range ids {
		select {
		case <-ctx.Done():
			break feed
		case work <- i:
		}
	}
	close(work)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return collect(results), err
	}
	return collect(results), nil
}

func collect(results []*model.PatientSummary) []model.PatientSummary {
	out := make([]model.PatientSummary, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

// FindEvent looks an event up in a summary by id.
func FindEvent(summary *model.PatientSummary, eventID string) (model.HFEvent, model.Period, bool) {
	for _, period := range []model.Period{model.PeriodPre, model.PeriodPost} {
		for _, event := range summary.Events(period) {
			if event.EventID == eventID {
				return event, period, true
			}
			for _, merged := range event.MergedIDs {
				if merged == eventID {
					return event, period, true
				}
			}
		}
	}
	return model.HFEvent{}, "", false
}
