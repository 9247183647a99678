// Package worker drives queued document-processing jobs end to end:
// claim, download, layout extraction, embedding, vector storage, finalize.
package worker

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/okezie-c/docingest/internal/core"
	"github.com/okezie-c/docingest/internal/core/ingestion_engine"
	"github.com/okezie-c/docingest/internal/models"
)

const downloadTimeout = 2 * time.Minute

// Worker polls the job store and processes one job at a time. Multiple
// worker processes may run against the same queue; mutual exclusion is
// delegated entirely to the store's atomic claim.
type Worker struct {
	jobs         core.JobStore
	layout       core.LayoutEngine
	extractor    *ingestion_engine.DocumentExtractor
	store        *ingestion_engine.EmbedStore
	objects      core.ObjectClient // nil unless s3:// sources are expected
	pollInterval time.Duration
	httpClient   *http.Client
}

func New(jobs core.JobStore, layout core.LayoutEngine, extractor *ingestion_engine.DocumentExtractor, store *ingestion_engine.EmbedStore, objects core.ObjectClient, pollInterval time.Duration) *Worker {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	return &Worker{
		jobs:         jobs,
		layout:       layout,
		extractor:    extractor,
		store:        store,
		objects:      objects,
		pollInterval: pollInterval,
		httpClient:   &http.Client{Timeout: downloadTimeout},
	}
}

// Run polls until the context is cancelled. A single job's failure is
// finalized on its row and never stops the loop.
func (w *Worker) Run(ctx context.Context) {
	log.Println("worker: started, polling for jobs...")

	for {
		select {
		case <-ctx.Done():
			log.Println("worker: shutting down")
			return
		default:
		}

		job, err := w.jobs.ClaimNext(ctx)
		if err != nil {
			log.Printf("worker: claim failed: %v", err)
			w.idle(ctx)
			continue
		}
		if job == nil {
			w.idle(ctx)
			continue
		}

		log.Printf("worker: claimed job %s (%s)", job.ID, job.Filename)
		w.processJob(ctx, job)
	}
}

func (w *Worker) idle(ctx context.Context) {
	select {
	case <-time.After(w.pollInterval):
	case <-ctx.Done():
	}
}

// processJob runs the per-job pipeline and always finalizes the row to a
// terminal state. Panics from any stage are converted into job failures so
// the loop survives arbitrarily many bad jobs.
func (w *Worker) processJob(ctx context.Context, job *models.ProcessingJob) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("worker: panic processing job %s: %v", job.ID, r)
			w.fail(ctx, job.ID, fmt.Sprintf("internal error: %v", r))
		}
	}()

	if err := w.runPipeline(ctx, job, start); err != nil {
		log.Printf("worker: job %s failed: %v", job.ID, err)
		w.fail(ctx, job.ID, err.Error())
	}
}

func (w *Worker) runPipeline(ctx context.Context, job *models.ProcessingJob, start time.Time) error {
	w.progress(ctx, job.ID, 10, "Downloading file...")

	tmpPath, err := w.download(ctx, job)
	if err != nil {
		return fmt.Errorf("download source: %w", err)
	}
	defer func() {
		if rmErr := os.Remove(tmpPath); rmErr != nil {
			log.Printf("worker: failed to clean up temp file %s: %v", tmpPath, rmErr)
		}
	}()

	w.progress(ctx, job.ID, 30, "Processing document with layout analysis...")

	doc, err := w.layout.Convert(ctx, tmpPath, job.FileType)
	if err != nil {
		return fmt.Errorf("layout conversion: %w", err)
	}

	chunks, err := w.extractor.Extract(ctx, doc, job.Filename)
	if err != nil {
		return fmt.Errorf("extract chunks: %w", err)
	}
	log.Printf("worker: job %s extracted %d chunks over %d pages", job.ID, len(chunks), doc.TotalPages)

	w.progress(ctx, job.ID, 90, "Storing in vector database...")

	stored, err := w.store.StoreChunks(ctx, chunks, job.Filename, job.ContentHash, job.Filename)
	if err != nil {
		return fmt.Errorf("store chunks: %w", err)
	}

	// Extraction produced content but nothing landed in the index. That is
	// a failure even though no stage returned an error.
	if len(chunks) > 0 && stored == 0 {
		zero := 0
		pages := doc.TotalPages
		w.update(ctx, job.ID, models.JobUpdate{
			Status:       models.JobStatusFailed,
			Progress:     0,
			Message:      "Processing failed",
			ErrorMessage: fmt.Sprintf("no chunks were stored in the vector index (%d extracted, 0 persisted)", len(chunks)),
			ChunksCount:  &zero,
			TotalPages:   &pages,
		})
		return nil
	}

	elapsed := time.Since(start).Milliseconds()
	pages := doc.TotalPages
	w.update(ctx, job.ID, models.JobUpdate{
		Status:           models.JobStatusCompleted,
		Progress:         100,
		Message:          fmt.Sprintf("Successfully processed and stored %d chunks", stored),
		ChunksCount:      &stored,
		TotalPages:       &pages,
		ProcessingTimeMS: &elapsed,
	})
	log.Printf("worker: job %s completed, stored %d/%d chunks in %dms", job.ID, stored, len(chunks), elapsed)
	return nil
}

// download fetches the job's source into a process-private temp file and
// returns its path. Supports https:// sources and s3://bucket/key locators.
func (w *Worker) download(ctx context.Context, job *models.ProcessingJob) (string, error) {
	tmp, err := os.CreateTemp("", "docingest-*"+filepath.Ext(job.Filename))
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	write := func() error {
		defer tmp.Close()

		if bucket, key, ok := parseS3URL(job.SourceURL); ok {
			if w.objects == nil {
				return fmt.Errorf("s3 source %q but object storage is not configured", job.SourceURL)
			}
			rc, err := w.objects.GetObjectReader(ctx, bucket, key)
			if err != nil {
				return err
			}
			defer rc.Close()
			_, err = io.Copy(tmp, rc)
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, job.SourceURL, nil)
		if err != nil {
			return err
		}
		resp, err := w.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			return fmt.Errorf("fetch %s: %s", job.SourceURL, resp.Status)
		}
		_, err = io.Copy(tmp, resp.Body)
		return err
	}

	if err := write(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

// parseS3URL splits an s3://bucket/key locator.
func parseS3URL(u string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(u, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

// progress reports a milestone. These are best-effort status writes, not
// part of the correctness contract.
func (w *Worker) progress(ctx context.Context, jobID string, pct int, msg string) {
	w.update(ctx, jobID, models.JobUpdate{
		Status:   models.JobStatusProcessing,
		Progress: pct,
		Message:  msg,
	})
}

func (w *Worker) fail(ctx context.Context, jobID, errMsg string) {
	w.update(ctx, jobID, models.JobUpdate{
		Status:       models.JobStatusFailed,
		Progress:     0,
		Message:      "Processing failed",
		ErrorMessage: errMsg,
	})
}

func (w *Worker) update(ctx context.Context, jobID string, upd models.JobUpdate) {
	if err := w.jobs.Update(ctx, jobID, upd); err != nil {
		log.Printf("worker: status update failed for job %s: %v", jobID, err)
	}
}
