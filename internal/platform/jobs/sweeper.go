package jobs

import (
	"context"
	"log/slog"
	"time"

	"brems/internal/domain/profilechange"
	"brems/internal/platform/metrics"
	"brems/internal/platform/storage"
)

// PendingSweeper removes staged upload files that nothing references anymore:
// not a live draft session, not a still-pending request. Files younger than
// TTL are always kept, so an in-flight upload can never be swept out from
// under its editor.
type PendingSweeper struct {
	Storage  *storage.Store
	Requests *profilechange.Store
	Drafts   *profilechange.Drafts
	TTL      time.Duration
	Interval time.Duration
	Metrics  *metrics.Collector
}

func (s *PendingSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.SweepOnce(ctx)
			if err != nil {
				slog.Warn("pending sweep failed", "err", err)
				continue
			}
			if removed > 0 {
				slog.Info("pending sweep removed stale files", "count", removed)
			}
		}
	}
}

func (s *PendingSweeper) SweepOnce(ctx context.Context) (int, error) {
	referenced, err := s.Requests.PendingDocumentPaths(ctx)
	if err != nil {
		return 0, err
	}
	if s.Drafts != nil {
		for _, path := range s.Drafts.TrackedPaths() {
			referenced[path] = true
		}
	}

	files, err := s.Storage.ListPending()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-s.TTL)
	removed := 0
	for _, file := range files {
		if referenced[file.Path] || file.ModTime.After(cutoff) {
			continue
		}
		if err := s.Storage.Delete(file.Path); err != nil {
			slog.Warn("pending sweep delete failed", "path", file.Path, "err", err)
			continue
		}
		removed++
	}
	if s.Metrics != nil {
		s.Metrics.PendingSwept(removed)
	}
	return removed, nil
}
