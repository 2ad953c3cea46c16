// Package extractor drives an extraction run: it pulls items from a source,
// applies the scope and content filters, projects accepted URLs onto the output
// tree and writes the response bytes. Items are processed strictly one after
// another; a failing item is recorded and the run moves on.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/haukened/burp2fs/internal/extract/common/clock"
	"github.com/haukened/burp2fs/internal/extract/common/log"
	"github.com/haukened/burp2fs/internal/extract/common/utils"
	"github.com/haukened/burp2fs/internal/extract/domain"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Options wires the collaborators of an Extractor. Filter and Projector are
// required; the rest are optional.
type Options struct {
	OutputDir  string
	Filter     ScopeFilter
	Projector  PathProjector
	Content    ContentFilter
	Manifest   Manifest
	Collisions CollisionTracker
	Clock      clock.Clock
	Logger     log.Logger

	// OnResult, when set, is called with each item result as soon as it is known.
	OnResult func(domain.ItemResult)
}

// Extractor materializes captured responses on disk.
type Extractor struct {
	outputDir  string
	filter     ScopeFilter
	projector  PathProjector
	content    ContentFilter
	manifest   Manifest
	collisions CollisionTracker
	clock      clock.Clock
	logger     log.Logger
	onResult   func(domain.ItemResult)
	run        uint64
}

// New returns an Extractor. Missing Clock and Logger default to the real clock
// and a no-op logger.
func New(opts Options) *Extractor {
	e := &Extractor{
		outputDir:  opts.OutputDir,
		filter:     opts.Filter,
		projector:  opts.Projector,
		content:    opts.Content,
		manifest:   opts.Manifest,
		collisions: opts.Collisions,
		clock:      opts.Clock,
		logger:     opts.Logger,
		onResult:   opts.OnResult,
	}
	if e.clock == nil {
		e.clock = clock.RealClock{}
	}
	if e.logger == nil {
		e.logger = log.NewNoopLogger()
	}
	return e
}

// Run processes every item of src. It returns early only when the output root
// cannot be created, the manifest cannot start a run, src fails, or ctx is
// cancelled; per-item failures are reported in the summary instead.
func (e *Extractor) Run(ctx context.Context, src ItemSource) (*domain.RunSummary, error) {
	if err := os.MkdirAll(e.outputDir, dirPerm); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	start := e.clock.Now()
	if e.manifest != nil {
		run, err := e.manifest.BeginRun(start)
		if err != nil {
			return nil, err
		}
		e.run = run
	}

	summary := domain.NewRunSummary()
	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		item, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return summary, err
		}
		res := e.Process(item)
		summary.Add(res)
		if e.onResult != nil {
			e.onResult(res)
		}
	}

	e.logger.Info(map[string]any{
		"items":           summary.Total(),
		"written":         summary.Count(domain.OutcomeWritten),
		"failed":          summary.Count(domain.OutcomeFailed),
		"skipped_scope":   summary.Count(domain.OutcomeSkippedScope),
		"skipped_content": summary.Count(domain.OutcomeSkippedContent),
		"skipped_nobody":  summary.Count(domain.OutcomeSkippedNoBody),
		"overwrites":      summary.Overwrites,
		"bytes":           summary.BytesWritten,
		"duration":        e.clock.Now().Sub(start).String(),
	}, "Extraction complete")
	return summary, nil
}

// Process handles a single item and never returns an error: failures are
// captured in the result.
func (e *Extractor) Process(item domain.CapturedItem) domain.ItemResult {
	res := domain.ItemResult{Index: item.Index, URL: item.URL}

	if !e.filter.ShouldProcess(item.URL) {
		res.Outcome = domain.OutcomeSkippedScope
		return res
	}
	if !item.HasBody {
		e.logger.Debug(map[string]any{"url": item.URL, "index": item.Index}, "skip_item_without_response")
		res.Outcome = domain.OutcomeSkippedNoBody
		res.Err = domain.ErrMissingResponseBody
		return res
	}
	if item.DecodeErr != nil {
		return e.fail(res, "decode", item.DecodeErr)
	}
	if e.content != nil {
		if ct, unwanted := e.content.Unwanted(item); unwanted {
			e.logger.Debug(map[string]any{"url": item.URL, "content_type": ct}, "unwanted_content_type")
			res.Outcome = domain.OutcomeSkippedContent
			return res
		}
	}

	proj := e.projector.Project(e.outputDir, item.URL)
	res.Path = proj.Path()
	host, _ := utils.SplitURL(item.URL)
	res.Domain = utils.GetApexDomain(host)

	dir, err := e.projector.EnsureDirectories(e.outputDir, item.URL)
	if err != nil {
		return e.fail(res, "mkdir", err)
	}
	res.Path = filepath.Join(dir, proj.Filename)
	if err := os.WriteFile(res.Path, item.Body, filePerm); err != nil {
		return e.fail(res, "write", err)
	}

	res.Outcome = domain.OutcomeWritten
	res.Bytes = int64(len(item.Body))
	if e.collisions != nil {
		res.Overwrote = e.collisions.Seen(res.Path)
	}
	e.record(res)
	e.logger.Info(map[string]any{"path": res.Path, "url": item.URL, "bytes": res.Bytes, "overwrote": res.Overwrote}, "Saved response")
	return res
}

func (e *Extractor) fail(res domain.ItemResult, op string, err error) domain.ItemResult {
	res.Outcome = domain.OutcomeFailed
	res.Err = &domain.WriteFailure{Op: op, URL: res.URL, Path: res.Path, Err: err}
	e.logger.Error(map[string]any{"url": res.URL, "path": res.Path, "op": op, "error": err.Error()}, "Error processing item")
	return res
}

// record writes a manifest entry. A manifest failure does not undo the write.
func (e *Extractor) record(res domain.ItemResult) {
	if e.manifest == nil {
		return
	}
	err := e.manifest.Record(domain.ManifestEntry{
		Path:      res.Path,
		URL:       res.URL,
		Bytes:     res.Bytes,
		Index:     res.Index,
		Run:       e.run,
		WrittenAt: e.clock.Now(),
	})
	if err != nil {
		e.logger.Warn(map[string]any{"path": res.Path, "error": err.Error()}, "Failed to record manifest entry")
	}
}
