package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/docfill/internal/doctree"
	"github.com/dgallion1/docfill/internal/importer"
)

// TemplateSaver persists an imported template and returns its key.
type TemplateSaver interface {
	SaveTemplate(ctx context.Context, tree doctree.Tree) (string, error)
}

// Worker processes a single import job.
type Worker struct {
	saver   TemplateSaver
	log     *slog.Logger
	opts    importer.Options
	backoff func(int) time.Duration
}

func NewWorker(saver TemplateSaver, log *slog.Logger, opts importer.Options) *Worker {
	return &Worker{
		saver:   saver,
		log:     log,
		opts:    opts,
		backoff: Backoff,
	}
}

// Process parses the upload into a template tree and saves it.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	job.SetStatus(StatusParsing, "parsing")
	imp, err := importer.ForFile(job.Filename, w.opts)
	if err != nil {
		log.Error("unsupported format", "error", err)
		w.fail(job, "parsing", err)
		return
	}
	tree, err := imp.Import(bytes.NewReader(job.FileData()))
	if err != nil {
		log.Error("import failed", "error", err)
		w.fail(job, "parsing", fmt.Errorf("parse: %w", err))
		return
	}
	log.Info("parsed template", "blocks", len(tree))

	job.SetStatus(StatusStoring, "storing")
	var key string
	err = retry(ctx, w.backoff,
		func(attempt int, err error) {
			log.Warn("retryable store error", "attempt", attempt, "error", err)
		},
		func() error {
			var err error
			key, err = w.saver.SaveTemplate(ctx, tree)
			return err
		},
	)
	if err != nil {
		log.Error("store failed", "error", err)
		w.fail(job, "storing", fmt.Errorf("store: %w", err))
		return
	}

	job.Complete(key, len(tree))
	log.Info("template imported", "template_key", key)
}

func (w *Worker) fail(job *Job, phase string, err error) {
	job.AddError(err.Error())
	job.SetStatus(StatusFailed, phase)
}
