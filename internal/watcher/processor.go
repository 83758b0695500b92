package watcher

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"

	ierrors "github.com/Aman-CERP/textindex/internal/errors"
	"github.com/Aman-CERP/textindex/internal/telemetry"
)

// EventProcessor translates change events into index mutations and keeps
// the directory registrations in step with the tree.
//
// Failures are logged and swallowed so the watch loop stays alive.
type EventProcessor struct {
	indexer   Indexer
	registrar Registrar
	metrics   *telemetry.Metrics
}

// NewEventProcessor creates a processor.
func NewEventProcessor(indexer Indexer, registrar Registrar, metrics *telemetry.Metrics) *EventProcessor {
	return &EventProcessor{
		indexer:   indexer,
		registrar: registrar,
		metrics:   metrics,
	}
}

// Process handles events in order. It returns early only when ctx is done.
func (p *EventProcessor) Process(ctx context.Context, events []FileEvent) {
	for _, ev := range events {
		if ctx.Err() != nil {
			return
		}
		p.handle(ctx, ev)
		p.metrics.WatchEvent(strings.ToLower(ev.Operation.String()))
	}
}

func (p *EventProcessor) handle(ctx context.Context, ev FileEvent) {
	switch ev.Operation {
	case OpCreate:
		info, err := os.Stat(ev.Path)
		if err != nil {
			slog.Debug("created path vanished before processing",
				slog.String("path", ev.Path))
			return
		}
		if info.IsDir() {
			n := p.registrar.RegisterTree(ctx, ev.Path)
			slog.Debug("registered new directory",
				slog.String("path", ev.Path),
				slog.Int("registrations", n))
		}
		p.logFailure("index created path", ev.Path, p.indexer.IndexFile(ctx, ev.Path))

	case OpModify:
		info, err := os.Stat(ev.Path)
		if err != nil {
			slog.Debug("modified path vanished before processing",
				slog.String("path", ev.Path))
			return
		}
		if info.IsDir() {
			// A directory replaced within one batch: drop the old tree, then
			// watch and index the new one.
			p.remove(ev.Path)
			p.registrar.RegisterTree(ctx, ev.Path)
			p.logFailure("index replaced directory", ev.Path, p.indexer.IndexFile(ctx, ev.Path))
			return
		}
		p.logFailure("re-index modified path", ev.Path, p.indexer.ReIndexFile(ctx, ev.Path))

	case OpDelete:
		p.remove(ev.Path)

	case OpOverflow:
		slog.Warn("change events dropped, index may be stale",
			slog.String("dir", ev.Dir))
		p.metrics.WatchOverflow()
	}
}

func (p *EventProcessor) remove(path string) {
	if dirs := p.registrar.Unregister(path); len(dirs) > 0 {
		slog.Debug("cancelled registrations",
			slog.String("path", path),
			slog.Int("count", len(dirs)))
	}
	p.logFailure("remove deleted path", path, p.indexer.RemoveFromIndex(path))
}

func (p *EventProcessor) logFailure(action, path string, err error) {
	if err == nil || ctxDone(err) {
		return
	}
	attrs := append([]any{slog.String("action", action), slog.String("path", path)}, ierrors.LogAttrs(err)...)
	slog.Warn("change event failed", attrs...)
}

func ctxDone(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
