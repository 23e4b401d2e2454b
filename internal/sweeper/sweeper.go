// Package sweeper physically removes comments whose soft deletion is older
// than the retention window.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/anonto42/discussion-tree/backend/internal/metrics"
	"github.com/anonto42/discussion-tree/backend/internal/models"
	"github.com/anonto42/discussion-tree/backend/internal/policy"
)

var ErrAlreadyRunning = errors.New("sweeper is already running")

// CommentStore is the slice of the comment repository the sweep needs.
type CommentStore interface {
	FindDeletedOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]models.Comment, error)
	PurgeSubtrees(ctx context.Context, ids []string) ([]string, error)
}

// NotificationStore drops references to purged comments.
type NotificationStore interface {
	DetachComments(ctx context.Context, commentIDs []string) (int64, error)
}

type Config struct {
	Interval  time.Duration
	Retention time.Duration
	BatchSize int
}

func DefaultConfig() Config {
	return Config{
		Interval:  24 * time.Hour,
		Retention: policy.RetentionWindow,
		BatchSize: 500,
	}
}

// Result describes one sweep. Found counts expired comments, Purged counts
// every removed row including replies below them.
type Result struct {
	Found     int       `json:"found"`
	Purged    int       `json:"purged"`
	Detached  int64     `json:"detached"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

func (r Result) Duration() time.Duration { return r.EndTime.Sub(r.StartTime) }

type Sweeper struct {
	comments      CommentStore
	notifications NotificationStore
	config        Config
	logger        *slog.Logger
	now           func() time.Time

	mu      sync.Mutex
	running bool
	done    chan struct{}
	stopped chan struct{}
}

func New(comments CommentStore, notifications NotificationStore, config Config, logger *slog.Logger) *Sweeper {
	if config.Interval <= 0 {
		config.Interval = DefaultConfig().Interval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultConfig().BatchSize
	}
	return &Sweeper{
		comments:      comments,
		notifications: notifications,
		config:        config,
		logger:        logger.With("component", "sweeper"),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Start runs a sweep immediately and then once per interval until Stop is
// called or ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyRunning
	}
	s.running = true
	s.done = make(chan struct{})
	s.stopped = make(chan struct{})

	s.logger.Info("retention sweep starting",
		"interval", s.config.Interval.String(),
		"retention", s.config.Retention.String(),
		"batch_size", s.config.BatchSize,
	)
	go s.loop(ctx, s.done, s.stopped)
	return nil
}

// Stop ends the loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.done)
	stopped := s.stopped
	s.mu.Unlock()

	<-stopped
	s.logger.Info("retention sweep stopped")
}

func (s *Sweeper) loop(ctx context.Context, done <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.execute(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			s.execute(ctx)
		}
	}
}

func (s *Sweeper) execute(ctx context.Context) {
	result, err := s.RunNow(ctx)
	if err != nil {
		s.logger.Error("retention sweep failed", "error", err, "purged", result.Purged)
		return
	}
	if result.Found == 0 {
		s.logger.Debug("retention sweep found nothing to purge")
		return
	}
	s.logger.Info("retention sweep completed",
		"found", result.Found,
		"purged", result.Purged,
		"detached_notifications", result.Detached,
		"duration_ms", result.Duration().Milliseconds(),
	)
}

// RunNow performs one complete sweep, batch by batch, and returns what it did.
// On error the result still reports the batches that were committed.
func (s *Sweeper) RunNow(ctx context.Context) (Result, error) {
	result := Result{StartTime: s.now()}
	cutoff := policy.PurgeCutoff(result.StartTime, s.config.Retention)

	for {
		if err := ctx.Err(); err != nil {
			result.EndTime = s.now()
			return result, err
		}

		expired, err := s.comments.FindDeletedOlderThan(ctx, cutoff, s.config.BatchSize)
		if err != nil {
			result.EndTime = s.now()
			return result, fmt.Errorf("find expired comments: %w", err)
		}
		if len(expired) == 0 {
			break
		}
		result.Found += len(expired)

		ids := lo.Map(expired, func(c models.Comment, _ int) string { return c.ID })
		purged, err := s.comments.PurgeSubtrees(ctx, ids)
		if err != nil {
			result.EndTime = s.now()
			return result, err
		}
		result.Purged += len(purged)
		metrics.SweepPurged.Add(float64(len(purged)))

		if s.notifications != nil && len(purged) > 0 {
			detached, err := s.notifications.DetachComments(ctx, purged)
			if err != nil {
				result.EndTime = s.now()
				return result, fmt.Errorf("detach notifications: %w", err)
			}
			result.Detached += detached
		}

		if len(expired) < s.config.BatchSize || len(purged) == 0 {
			break
		}
	}

	result.EndTime = s.now()
	return result, nil
}
