package dfsense

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/jward/dfsense/internal/outline"
	"github.com/jward/dfsense/internal/store"
)

// workItem holds everything a parallel extraction worker needs.
type workItem struct {
	path    string
	fileID  int64
	content []byte
	batch   *store.BatchedStore
}

// indexFilesParallel indexes files using a three-phase pipeline:
//
//	Phase A (serial):   Hash check, delete old data, prepare file records.
//	Phase B (parallel): Extract outlines via a worker pool into per-file batches.
//	Phase C (serial):   Commit batches to SQLite.
func (e *Engine) indexFilesParallel(ctx context.Context, paths []string) error {
	var errs []error

	// ---- Phase A: Serial file preparation ----
	var items []workItem
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		item, skip, err := e.prepareFile(path)
		if err != nil {
			e.logger.Printf("warning: prepare %s: %v", path, err)
			errs = append(errs, fmt.Errorf("prepare %s: %w", path, err))
			e.reportProgress(path)
			continue
		}
		if skip {
			e.reportProgress(path)
			continue
		}
		items = append(items, item)
	}

	if len(items) > 0 {
		errs = append(errs, e.extractAndCommit(ctx, items)...)
	}

	if len(errs) > 0 {
		return fmt.Errorf("indexing had %d error(s): %w", len(errs), errs[0])
	}
	return ctx.Err()
}

func (e *Engine) extractAndCommit(ctx context.Context, items []workItem) []error {
	// ---- Phase B: Parallel extraction ----
	numWorkers := max(1, min(runtime.NumCPU(), len(items)))

	workCh := make(chan workItem, len(items))
	for _, item := range items {
		workCh <- item
	}
	close(workCh)

	type result struct {
		item workItem
		err  error
	}
	resultCh := make(chan result, len(items))

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range workCh {
				if ctx.Err() != nil {
					resultCh <- result{item: item, err: ctx.Err()}
					continue
				}
				res := outline.Extract(string(item.content))
				resultCh <- result{item: item, err: writeOutline(item.batch, item.fileID, res)}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// ---- Phase C: Serial commit ----
	var errs []error
	for res := range resultCh {
		if res.err == nil {
			res.err = e.store.CommitBatch(res.item.batch)
		}
		if res.err != nil {
			e.logger.Printf("warning: index %s: %v", res.item.path, res.err)
			errs = append(errs, fmt.Errorf("index %s: %w", res.item.path, res.err))
			// Drop the file record so the next run retries it.
			if err := e.store.DeleteFile(res.item.fileID); err != nil {
				e.logger.Printf("warning: drop %s: %v", res.item.path, err)
			}
		}
		e.reportProgress(res.item.path)
	}
	return errs
}

// prepareFile does Phase A work for a single file: hash check, cleanup, file
// record. Returns (item, skip, error). skip=true means the file is unchanged
// or not indexable.
func (e *Engine) prepareFile(path string) (workItem, bool, error) {
	if !e.Indexable(path) {
		return workItem{}, true, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return workItem{}, false, fmt.Errorf("read file: %w", err)
	}
	hash := fmt.Sprintf("%x", sha256.Sum256(content))

	existing, err := e.store.FileByPath(path)
	if err != nil {
		return workItem{}, false, fmt.Errorf("lookup file: %w", err)
	}
	if existing != nil && existing.Hash == hash {
		return workItem{}, true, nil // unchanged
	}

	// Clean up old data.
	if existing != nil {
		if err := e.store.DeleteFile(existing.ID); err != nil {
			return workItem{}, false, fmt.Errorf("delete old data: %w", err)
		}
	}

	// Insert new file record (real ID assigned by SQLite).
	fileID, err := e.store.InsertFile(&store.File{
		Path:        path,
		Language:    e.languageID,
		Hash:        hash,
		LineCount:   bytes.Count(content, []byte{'\n'}) + 1,
		LastIndexed: time.Now(),
	})
	if err != nil {
		return workItem{}, false, fmt.Errorf("insert file: %w", err)
	}

	return workItem{
		path:    path,
		fileID:  fileID,
		content: content,
		batch:   store.NewBatchedStore(),
	}, false, nil
}
