// discovery.go contains the scan pipeline: walk, classify, extract,
// resolve, validate, persist.
package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/leapstack-labs/efscan/internal/depgraph"
	"github.com/leapstack-labs/efscan/internal/resolve"
	"github.com/leapstack-labs/efscan/internal/scan"
	"github.com/leapstack-labs/efscan/internal/state"
	"github.com/leapstack-labs/efscan/pkg/model"
	"github.com/leapstack-labs/efscan/pkg/validate"
)

// ScanOptions configures a scan.
type ScanOptions struct {
	// Force re-hashes and re-records every file even when unchanged.
	Force bool
}

// ScanResult contains the extracted model and statistics about the scan.
type ScanResult struct {
	ScanID string
	Model  *model.Model
	Graph  *depgraph.Graph

	FilesSeen    int
	FilesChanged int
	FilesDeleted int
	Duration     time.Duration
}

// Summary returns a human-readable summary.
func (r *ScanResult) Summary() string {
	return fmt.Sprintf(
		"Files: %d seen (%d changed, %d deleted) | Tables: %d | Relationships: %d | Duration: %s",
		r.FilesSeen, r.FilesChanged, r.FilesDeleted,
		len(r.Model.Objects), relationshipCount(r.Model),
		r.Duration.Round(time.Millisecond),
	)
}

func relationshipCount(m *model.Model) int {
	count := 0
	for _, obj := range m.Objects {
		count += len(obj.Dependants)
	}
	return count
}

// Scan runs the full pipeline over the configured directory. Extraction,
// resolution, and validation failures mark the recorded scan as failed and
// are returned to the caller.
func (e *Engine) Scan(ctx context.Context, opts ScanOptions) (*ScanResult, error) {
	start := time.Now()

	rec, err := e.store.CreateScan(e.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to record scan: %w", err)
	}

	e.logger.Info("starting scan", "scan_id", rec.ID, "dir", e.dir)

	result := &ScanResult{ScanID: rec.ID}
	counts := state.ScanCounts{}

	m, err := e.extract(ctx, opts, result)
	if err == nil {
		err = e.finish(ctx, m, result)
	}

	counts.FilesSeen = result.FilesSeen
	counts.FilesChanged = result.FilesChanged
	if err != nil {
		e.logger.Error("scan failed", "scan_id", rec.ID, "error", err)
		_ = e.store.CompleteScan(rec.ID, state.ScanStatusFailed, counts, err.Error())
		return nil, err
	}

	counts.TableCount = len(m.Objects)
	counts.DependencyCount = relationshipCount(m)

	if err := e.store.SaveSnapshot(rec.ID, m); err != nil {
		e.logger.Error("scan failed", "scan_id", rec.ID, "error", err)
		_ = e.store.CompleteScan(rec.ID, state.ScanStatusFailed, counts, err.Error())
		return nil, err
	}
	if err := e.store.CompleteScan(rec.ID, state.ScanStatusCompleted, counts, ""); err != nil {
		return nil, err
	}

	result.Model = m
	result.Duration = time.Since(start)

	e.logger.Info("scan completed",
		"scan_id", rec.ID,
		"files_seen", result.FilesSeen,
		"files_changed", result.FilesChanged,
		"tables", counts.TableCount,
		"relationships", counts.DependencyCount,
		"duration_ms", result.Duration.Milliseconds())

	return result, nil
}

// extract walks the directory, classifies every source file, and assembles
// the raw model, tracking content hashes along the way.
func (e *Engine) extract(ctx context.Context, opts ScanOptions, result *ScanResult) (*model.Model, error) {
	scanner := scan.NewScanner()
	files, err := scanner.ScanDir(e.dir)
	if err != nil {
		return nil, err
	}

	builder := scan.NewBuilder()
	seen := make(map[string]bool)

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		seen[file.Path] = true
		result.FilesSeen++

		kind, err := builder.Add(file)
		if err != nil {
			return nil, err
		}

		newHash := computeHash(file.Content)
		if !opts.Force {
			oldHash, err := e.store.GetContentHash(file.Path)
			if err != nil {
				return nil, err
			}
			if oldHash == newHash {
				e.logger.Debug("unchanged file", "path", file.Path)
				continue
			}
		}

		result.FilesChanged++
		if err := e.store.SetContentHash(file.Path, newHash, kind.String()); err != nil {
			return nil, err
		}
	}

	result.FilesDeleted, err = e.pruneDeleted(seen)
	if err != nil {
		return nil, err
	}

	m, err := builder.Finalize()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.dir, err)
	}
	return m, nil
}

// finish resolves relationships, validates the model, and derives the
// relationship graph.
func (e *Engine) finish(ctx context.Context, m *model.Model, result *ScanResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := resolve.Resolve(m); err != nil {
		return err
	}
	if err := validate.Run(m, e.steps); err != nil {
		return err
	}

	result.Graph = depgraph.FromModel(m)
	return nil
}

// pruneDeleted drops hashes of files that disappeared since the last scan.
func (e *Engine) pruneDeleted(seen map[string]bool) (int, error) {
	tracked, err := e.store.TrackedFiles()
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, path := range tracked {
		if !seen[path] {
			if err := e.store.DeleteContentHash(path); err != nil {
				return deleted, err
			}
			e.logger.Debug("pruned deleted file", "path", path)
			deleted++
		}
	}
	return deleted, nil
}

// computeHash generates a SHA256 hash of content.
func computeHash(content string) string {
	h := sha256.Sum256([]byte(content))
	return hex.EncodeToString(h[:8]) // Use first 8 bytes for brevity
}
