package reconcile

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/civicgrid/planportal-crawler/internal/planning"
	"github.com/civicgrid/planportal-crawler/internal/portal"
	"github.com/civicgrid/planportal-crawler/internal/progress"
	"github.com/civicgrid/planportal-crawler/internal/store"
)

// Config carries the engine's date-filter keywords. The portal expects its
// own identifiers (DC_Validated / DC_Decided on stock deployments).
type Config struct {
	ValidatedKeyword string
	DecidedKeyword   string
}

// Engine runs the crawl passes. Cases are processed strictly in pagination
// order, one at a time, over a single portal session. Bootstrap and
// pagination failures abort a pass; anything that goes wrong while handling
// an individual case only abandons that case.
type Engine struct {
	session  *portal.Session
	store    store.Store
	uploader *Uploader
	reporter *progress.Reporter
	logger   *zap.Logger
	cfg      Config
}

// NewEngine assembles the reconciliation engine.
func NewEngine(session *portal.Session, st store.Store, uploader *Uploader, reporter *progress.Reporter, logger *zap.Logger, cfg Config) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reporter == nil {
		reporter = progress.NewReporter(logger)
	}
	if cfg.ValidatedKeyword == "" {
		cfg.ValidatedKeyword = "DC_Validated"
	}
	if cfg.DecidedKeyword == "" {
		cfg.DecidedKeyword = "DC_Decided"
	}
	return &Engine{
		session:  session,
		store:    st,
		uploader: uploader,
		reporter: reporter,
		logger:   logger,
		cfg:      cfg,
	}
}

// RunValidatedPass crawls the validated category: cases new to the store
// that carry an application form are inserted; everything else is skipped.
func (e *Engine) RunValidatedPass(ctx context.Context) (*PassSummary, error) {
	return e.runPass(ctx, PassValidated, e.cfg.ValidatedKeyword, e.processValidatedCase)
}

// RunDecidedPass crawls the decided category: finalized cases are skipped,
// known cases gain their decision notice, unknown cases are inserted whole.
func (e *Engine) RunDecidedPass(ctx context.Context) (*PassSummary, error) {
	return e.runPass(ctx, PassDecided, e.cfg.DecidedKeyword, e.processDecidedCase)
}

func (e *Engine) runPass(ctx context.Context, pass, keyword string, process func(context.Context, string, planning.CaseLink) Outcome) (*PassSummary, error) {
	start := time.Now()

	links, err := e.session.ListCaseLinks(ctx, keyword)
	if err != nil {
		// A partial listing cannot be reconciled; the whole pass dies here.
		return nil, fmt.Errorf("%s pass: %w", pass, err)
	}
	e.logger.Info("pass started", zap.String("pass", pass), zap.Int("cases", len(links)))
	e.reporter.Publish(ctx, progress.Event{Pass: pass, Stage: progress.StagePassStart, Total: len(links)})

	summary := &PassSummary{Pass: pass, Total: len(links)}
	for _, link := range links {
		outcome := process(ctx, pass, link)
		summary.add(outcome)

		switch outcome.Status {
		case StatusFailed:
			e.logger.Warn("case abandoned",
				zap.String("pass", pass),
				zap.String("link", string(outcome.Link)),
				zap.String("reference", outcome.Reference),
				zap.Error(outcome.Err))
		case StatusSkipped:
			e.logger.Info("case skipped",
				zap.String("pass", pass),
				zap.String("reference", outcome.Reference),
				zap.String("reason", outcome.Reason))
		}
		e.reporter.Publish(ctx, progress.Event{
			Pass:      pass,
			Stage:     progress.StageCaseDone,
			Reference: outcome.Reference,
			URL:       string(outcome.Link),
			Outcome:   string(outcome.Status),
			Reason:    outcome.reasonText(),
		})
	}

	e.reporter.Publish(ctx, progress.Event{Pass: pass, Stage: progress.StagePassDone, Dur: time.Since(start)})
	e.logger.Info("pass finished",
		zap.String("pass", pass),
		zap.Int("inserted", summary.Inserted),
		zap.Int("updated", summary.Updated),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed))
	return summary, nil
}

// processValidatedCase resolves one case of the validated category.
func (e *Engine) processValidatedCase(ctx context.Context, pass string, link planning.CaseLink) Outcome {
	reference, docs, err := e.session.FetchCaseDocuments(ctx, link)
	if err != nil {
		return failed(link, "", err)
	}
	council := e.session.Council()

	existing, err := e.store.FindByReference(ctx, council, reference)
	if err != nil {
		return failed(link, reference, err)
	}
	if existing != nil {
		return skipped(link, reference, "reference already present")
	}

	formURL, ok := docs[planning.DocApplicationForm]
	if !ok {
		return skipped(link, reference, "no application form")
	}

	rec, err := e.session.FetchCaseRecord(ctx, link)
	if err != nil {
		return failed(link, reference, err)
	}
	docRef, err := e.uploader.Upload(ctx, planning.DocApplicationForm, formURL)
	if err != nil {
		return failed(link, reference, err)
	}
	e.publishUpload(ctx, pass, reference, docRef)
	rec.Documents = append(rec.Documents, docRef)

	if err := e.store.Insert(ctx, rec); err != nil {
		return failed(link, reference, err)
	}
	return inserted(link, reference)
}

// processDecidedCase resolves one case of the decided category. The
// finalized check runs before any upload so re-runs stay idempotent.
func (e *Engine) processDecidedCase(ctx context.Context, pass string, link planning.CaseLink) Outcome {
	reference, docs, err := e.session.FetchCaseDocuments(ctx, link)
	if err != nil {
		return failed(link, "", err)
	}
	council := e.session.Council()

	finalized, err := e.store.FindByReferenceWithDecision(ctx, council, reference)
	if err != nil {
		return failed(link, reference, err)
	}
	if finalized != nil {
		return skipped(link, reference, "decision already recorded")
	}

	existing, err := e.store.FindByReference(ctx, council, reference)
	if err != nil {
		return failed(link, reference, err)
	}
	if existing != nil {
		return e.mergeDecision(ctx, pass, link, reference, existing, docs)
	}
	return e.insertDecided(ctx, pass, link, reference, docs)
}

// mergeDecision attaches a newly published decision notice to a known case,
// refreshing its scraped sub-records in the same write.
func (e *Engine) mergeDecision(ctx context.Context, pass string, link planning.CaseLink, reference string, existing *planning.CaseRecord, docs portal.DocumentLinks) Outcome {
	noticeURL, ok := docs[planning.DocDecisionNotice]
	if !ok {
		return skipped(link, reference, "no decision notice found")
	}

	docRef, err := e.uploader.Upload(ctx, planning.DocDecisionNotice, noticeURL)
	if err != nil {
		return failed(link, reference, err)
	}
	e.publishUpload(ctx, pass, reference, docRef)

	fresh, err := e.session.FetchCaseRecord(ctx, link)
	if err != nil {
		return failed(link, reference, err)
	}

	upd := store.CaseUpdate{
		Summary:            fresh.Summary,
		FurtherInformation: fresh.FurtherInformation,
		AgentDetails:       fresh.AgentDetails,
		Documents:          append(append([]planning.DocumentRef(nil), existing.Documents...), docRef),
		UpdatedAt:          fresh.UpdatedAt,
		UpdatedBy:          fresh.UpdatedBy,
	}
	matched, err := e.store.UpdateByReference(ctx, e.session.Council(), reference, upd)
	if err != nil {
		return failed(link, reference, err)
	}
	if matched == 0 {
		e.logger.Warn("update target vanished between read and write",
			zap.String("reference", reference))
	}
	return updated(link, reference)
}

// insertDecided inserts a case first seen in the decided category, carrying
// every qualifying document found on its listing.
func (e *Engine) insertDecided(ctx context.Context, pass string, link planning.CaseLink, reference string, docs portal.DocumentLinks) Outcome {
	rec, err := e.session.FetchCaseRecord(ctx, link)
	if err != nil {
		return failed(link, reference, err)
	}

	for _, kind := range []planning.DocKind{planning.DocApplicationForm, planning.DocDecisionNotice} {
		sourceURL, ok := docs[kind]
		if !ok {
			continue
		}
		docRef, err := e.uploader.Upload(ctx, kind, sourceURL)
		if err != nil {
			return failed(link, reference, err)
		}
		e.publishUpload(ctx, pass, reference, docRef)
		rec.Documents = append(rec.Documents, docRef)
	}

	if err := e.store.Insert(ctx, rec); err != nil {
		return failed(link, reference, err)
	}
	return inserted(link, reference)
}

func (e *Engine) publishUpload(ctx context.Context, pass, reference string, docRef planning.DocumentRef) {
	e.reporter.Publish(ctx, progress.Event{
		Pass:      pass,
		Stage:     progress.StageUploadDone,
		Reference: reference,
		DocType:   string(docRef.DocType),
		Bytes:     docRef.Size,
	})
}
