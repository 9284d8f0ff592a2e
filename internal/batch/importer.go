package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/joseph-ayodele/expense-tracker/constants"
	"github.com/joseph-ayodele/expense-tracker/internal/entity"
	"github.com/joseph-ayodele/expense-tracker/internal/extract"
	"github.com/joseph-ayodele/expense-tracker/internal/pipeline"
)

type Extractor interface {
	Run(ctx context.Context, doc extract.Document) pipeline.Result
}

type ExpenseCreator interface {
	CreateExpense(ctx context.Context, e *entity.Expense) (*entity.Expense, error)
}

// FileResult is the outcome of importing one file. Err is set when the file was skipped
// or the store rejected it; a DEGRADED extraction is not an error.
type FileResult struct {
	Path      string                     `json:"path"`
	Status    constants.ExtractionStatus `json:"status,omitempty"`
	Reason    string                     `json:"reason,omitempty"`
	Draft     *entity.Draft              `json:"draft,omitempty"`
	ExpenseID string                     `json:"expenseId,omitempty"`
	Err       string                     `json:"error,omitempty"`
}

type Summary struct {
	Files     []FileResult `json:"files"`
	Matched   int          `json:"matched"`
	Saved     int          `json:"saved"`
	Degraded  int          `json:"degraded"`
	Failed    int          `json:"failed"`
	WalkStats DirStats     `json:"-"`
}

// Importer runs every receipt under a directory through the extraction pipeline.
// With a nil store it only reports drafts.
type Importer struct {
	extractor Extractor
	store     ExpenseCreator
	maxBytes  int64
	logger    *zap.Logger
	now       func() time.Time
	opts      []Option
}

func NewImporter(extractor Extractor, store ExpenseCreator, maxBytes int64, logger *zap.Logger, opts ...Option) *Importer {
	if maxBytes <= 0 {
		maxBytes = constants.MaxUploadBytes
	}
	return &Importer{
		extractor: extractor,
		store:     store,
		maxBytes:  maxBytes,
		logger:    logger,
		now:       time.Now,
		opts:      opts,
	}
}

// ImportDir collects matching files under root and imports them concurrently.
// Results are sorted by path.
func (im *Importer) ImportDir(ctx context.Context, root string, includeExts []string, skipHidden bool) (*Summary, error) {
	files, walkErrs, stats, err := CollectFiles(root, includeExts, skipHidden)
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	im.logger.Info("batch.import.start", zap.String("root", root), zap.Uint32("matched", stats.Matched))

	var (
		mu      sync.Mutex
		results = make([]FileResult, 0, len(files)+len(walkErrs))
	)
	for _, we := range walkErrs {
		results = append(results, FileResult{Path: we.Path, Err: we.Err.Error()})
	}

	q := NewQueue(ctx, func(jobCtx context.Context, job Job) {
		r := im.ImportFile(jobCtx, job.Path)
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	}, im.logger, im.opts...)

	var enqueueErr error
	for _, path := range files {
		if enqueueErr = q.Enqueue(ctx, Job{Path: path}); enqueueErr != nil {
			break
		}
	}
	if err := q.Shutdown(ctx); err != nil && enqueueErr == nil {
		enqueueErr = err
	}

	mu.Lock()
	defer mu.Unlock()
	sum := summarize(results, int(stats.Matched))
	sum.WalkStats = stats
	im.logger.Info("batch.import.done",
		zap.Int("matched", sum.Matched),
		zap.Int("saved", sum.Saved),
		zap.Int("degraded", sum.Degraded),
		zap.Int("failed", sum.Failed),
	)
	return sum, enqueueErr
}

func summarize(results []FileResult, matched int) *Summary {
	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	sum := &Summary{Files: results, Matched: matched}
	for _, r := range results {
		switch {
		case r.Err != "":
			sum.Failed++
		case r.Status == constants.ExtractionDegraded:
			sum.Degraded++
		}
		if r.ExpenseID != "" {
			sum.Saved++
		}
	}
	return sum
}

// ImportFile applies the same admission rules as the upload endpoint, then extracts
// and optionally stores the draft.
func (im *Importer) ImportFile(ctx context.Context, path string) FileResult {
	log := im.logger.With(zap.String("path", path))
	res := FileResult{Path: path}
	if err := ctx.Err(); err != nil {
		res.Err = "skipped: " + err.Error()
		return res
	}

	info, err := os.Stat(path)
	if err != nil {
		res.Err = err.Error()
		return res
	}
	if info.Size() == 0 {
		res.Err = "file is empty"
		return res
	}
	if info.Size() > im.maxBytes {
		res.Err = fmt.Sprintf("file exceeds %d bytes", im.maxBytes)
		log.Warn("batch.file.too_large", zap.Int64("bytes", info.Size()))
		return res
	}

	data, err := os.ReadFile(path)
	if err != nil {
		res.Err = err.Error()
		return res
	}
	mediaType, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")
	if constants.MapMediaTypeToFormat(mediaType) == "" {
		res.Err = "unsupported media type " + mediaType
		return res
	}

	out := im.extractor.Run(ctx, extract.Document{Data: data, MediaType: mediaType, Filename: filepath.Base(path)})
	res.Status = out.Status
	res.Reason = out.Reason
	draft := out.Draft
	res.Draft = &draft

	if im.store == nil {
		return res
	}
	created, err := im.store.CreateExpense(ctx, draft.ToExpense(im.now()))
	if err != nil {
		log.Error("batch.file.store_failed", zap.Error(err))
		res.Err = err.Error()
		return res
	}
	res.ExpenseID = created.ID.String()
	log.Info("batch.file.stored", zap.String("expense_id", res.ExpenseID), zap.String("status", string(out.Status)))
	return res
}

// WatchDir imports every receipt that appears under root until ctx is done, then drains
// the queue and returns what was processed.
func (im *Importer) WatchDir(ctx context.Context, cfg WatchConfig) (*Summary, error) {
	paths, errs, err := Watch(ctx, cfg, im.logger)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", cfg.Root, err)
	}
	im.logger.Info("batch.watch.start", zap.String("root", cfg.Root))

	var (
		mu      sync.Mutex
		results = make([]FileResult, 0)
	)
	// ctx ends the watch; queued files still get the drain window below
	q := NewQueue(context.WithoutCancel(ctx), func(jobCtx context.Context, job Job) {
		r := im.ImportFile(jobCtx, job.Path)
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	}, im.logger, im.opts...)

	for paths != nil || errs != nil {
		select {
		case p, ok := <-paths:
			if !ok {
				paths = nil
				continue
			}
			// ctx may already be done; the remaining buffered paths are dropped
			if err := q.Enqueue(ctx, Job{Path: p}); err != nil {
				im.logger.Debug("batch.watch.enqueue_skipped", zap.String("path", p), zap.Error(err))
			}
		case werr, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			mu.Lock()
			results = append(results, FileResult{Path: cfg.Root, Err: werr.Error()})
			mu.Unlock()
		}
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	shutdownErr := q.Shutdown(drainCtx)

	mu.Lock()
	defer mu.Unlock()
	sum := summarize(results, len(results))
	im.logger.Info("batch.watch.done", zap.Int("saved", sum.Saved), zap.Int("failed", sum.Failed))
	return sum, shutdownErr
}
