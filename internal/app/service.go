// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/okian/vitalrace/internal/adapters/player"
	"github.com/okian/vitalrace/internal/adapters/repository"
	"github.com/okian/vitalrace/internal/domain/model"
	"github.com/okian/vitalrace/internal/domain/playback"
	"github.com/okian/vitalrace/internal/domain/resample"
	"github.com/okian/vitalrace/internal/domain/summary"
	"github.com/okian/vitalrace/pkg/logger"
	"github.com/okian/vitalrace/pkg/metrics"
)

// AllGroup names the implicit group used when no groups are configured.
const AllGroup = "all"

// Service implements the API dependencies for the race and summary views.
type Service struct {
	mu sync.RWMutex

	// Core components
	store  repository.Store
	player *player.Player
	sink   player.FrameSink

	// Configuration
	pointCount int
	duration   time.Duration
	interval   time.Duration
	workers    int
	thresholds map[string]float64
	groups     map[string][]string
	window     summary.Window

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the dataset store. Defaults to an in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithFrameSink sets where playback frames are delivered.
func WithFrameSink(sink player.FrameSink) Option {
	return func(s *Service) {
		s.sink = sink
	}
}

// WithPointCount sets the resampled length of every series.
func WithPointCount(n int) Option {
	return func(s *Service) {
		if n >= 2 {
			s.pointCount = n
		}
	}
}

// WithDuration sets the playback loop duration.
func WithDuration(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.duration = d
		}
	}
}

// WithFrameInterval sets the playback ticker period.
func WithFrameInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithResampleWorkers bounds concurrent per-subject resampling.
func WithResampleWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithThresholds sets the critical threshold per metric.
func WithThresholds(thresholds map[string]float64) Option {
	return func(s *Service) {
		s.thresholds = thresholds
	}
}

// WithGroups sets the cohort groups used for summaries.
func WithGroups(groups map[string][]string) Option {
	return func(s *Service) {
		s.groups = groups
	}
}

// WithWindow sets the default summary window.
func WithWindow(w summary.Window) Option {
	return func(s *Service) {
		s.window = w
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		pointCount: resample.DefaultPointCount,
		duration:   playback.DefaultDuration,
		interval:   player.DefaultInterval,
		workers:    runtime.NumCPU(),
		window:     summary.Window{StartMin: 0, EndMin: 120},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the store and the player.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if err := s.window.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore(repository.WithResampleWorkers(s.workers))
	}

	cursor := playback.NewCursor(playback.NewClock(s.duration))
	s.player = player.New(cursor, s.sink,
		player.WithInterval(s.interval),
		player.WithLogger(s.logger.Named("player")),
	)

	s.started = true
	s.logger.Info(ctx, "service started",
		logger.Int("pointCount", s.pointCount),
		logger.Duration("duration", s.duration),
		logger.Int("groups", len(s.groups)),
		logger.String("session", s.player.ID()),
	)
	return nil
}

// Stop halts playback. No frame is delivered after Stop returns.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.player.Stop(ctx)
	s.started = false
	s.logger.Info(ctx, "service stopped")
}

// Load replaces the dataset. An active metric is re-resampled and keeps its
// progress.
func (s *Service) Load(ctx context.Context, ds model.Dataset) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.store.Replace(ctx, ds); err != nil {
		return fmt.Errorf("replace dataset: %w", err)
	}
	s.logger.Info(ctx, "dataset loaded",
		logger.Int("subjects", len(ds)),
		logger.Int("series", ds.SeriesCount()),
	)

	if metricID := s.player.Status().MetricID; metricID != "" {
		if err := s.SelectMetric(ctx, metricID); err != nil {
			s.logger.Warn(ctx, "active metric no longer playable",
				logger.String("metric", metricID),
				logger.Error(err),
			)
		}
	}
	return nil
}

// Subjects returns the loaded subject ids.
func (s *Service) Subjects(ctx context.Context) []string {
	if s.ready() != nil {
		return nil
	}
	return s.store.Subjects(ctx)
}

// Metrics returns the loaded metric ids.
func (s *Service) Metrics(ctx context.Context) []string {
	if s.ready() != nil {
		return nil
	}
	return s.store.Metrics(ctx)
}

// Groups returns the configured groups, or a single group with every subject.
func (s *Service) Groups(ctx context.Context) map[string][]string {
	if len(s.groups) > 0 {
		return s.groups
	}
	return map[string][]string{AllGroup: s.Subjects(ctx)}
}

// Threshold returns the critical threshold of metricID, +Inf when unset.
func (s *Service) Threshold(metricID string) float64 {
	if v, ok := s.thresholds[metricID]; ok {
		return v
	}
	return math.Inf(1)
}

// DefaultWindow returns the configured summary window.
func (s *Service) DefaultWindow() summary.Window { return s.window }

// Snapshot ranks every subject carrying metricID at progress.
func (s *Service) Snapshot(ctx context.Context, metricID string, progress float64) (model.CohortSnapshot, error) {
	if err := s.ready(); err != nil {
		return model.CohortSnapshot{}, err
	}
	if math.IsNaN(progress) || progress < 0 || progress > 1 {
		return model.CohortSnapshot{}, fmt.Errorf("%w: progress %g outside [0,1]", ErrInvalidArgument, progress)
	}
	series, err := s.store.Resampled(ctx, metricID, s.pointCount)
	if err != nil {
		return model.CohortSnapshot{}, err
	}
	return playback.Snapshot(series, metricID, progress, s.Threshold(metricID)), nil
}

// Summaries summarises metricID for every group in ascending group order.
// Groups with nothing inside the window are skipped.
func (s *Service) Summaries(ctx context.Context, metricID string, w summary.Window) ([]model.GroupSummary, error) {
	if err := s.checkQuery(ctx, metricID, w); err != nil {
		return nil, err
	}
	groups := s.Groups(ctx)
	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	ds := s.store.Dataset(ctx)
	out := make([]model.GroupSummary, 0, len(ids))
	for _, groupID := range ids {
		sum, err := s.summarize(ctx, ds, metricID, groupID, groups[groupID], w)
		if errors.Is(err, model.ErrEmptyPool) {
			metrics.RecordEmptyGroup()
			s.logger.Warn(ctx, "skipping empty group",
				logger.String("group", groupID),
				logger.String("metric", metricID),
			)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, nil
}

// Summary summarises metricID for one group.
func (s *Service) Summary(ctx context.Context, metricID, groupID string, w summary.Window) (model.GroupSummary, error) {
	if err := s.checkQuery(ctx, metricID, w); err != nil {
		return model.GroupSummary{}, err
	}
	subjects, ok := s.Groups(ctx)[groupID]
	if !ok {
		return model.GroupSummary{}, &model.UnknownKeyError{GroupID: groupID}
	}
	return s.summarize(ctx, s.store.Dataset(ctx), metricID, groupID, subjects, w)
}

// Play starts or resumes playback of the selected metric.
func (s *Service) Play(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	if s.player.Status().MetricID == "" {
		return ErrNoMetric
	}
	return s.player.Play(ctx)
}

// Pause freezes playback.
func (s *Service) Pause(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	s.player.Pause(ctx)
	return nil
}

// StopPlayback resets playback to zero.
func (s *Service) StopPlayback(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	s.player.Stop(ctx)
	return nil
}

// Seek moves playback to progress.
func (s *Service) Seek(ctx context.Context, progress float64) error {
	if err := s.ready(); err != nil {
		return err
	}
	if math.IsNaN(progress) || progress < 0 || progress > 1 {
		return fmt.Errorf("%w: progress %g outside [0,1]", ErrInvalidArgument, progress)
	}
	return s.player.Seek(ctx, progress)
}

// SelectMetric switches playback to metricID without changing progress.
func (s *Service) SelectMetric(ctx context.Context, metricID string) error {
	if err := s.ready(); err != nil {
		return err
	}
	series, err := s.store.Resampled(ctx, metricID, s.pointCount)
	if err != nil {
		return err
	}
	return s.player.Select(ctx, metricID, series, s.Threshold(metricID))
}

// Step advances playback by delta synchronously.
func (s *Service) Step(ctx context.Context, delta time.Duration) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	return s.player.Step(ctx, delta)
}

// PlaybackStatus reports the player state.
func (s *Service) PlaybackStatus() player.Status {
	if s.ready() != nil {
		return player.Status{State: playback.Stopped.String()}
	}
	return s.player.Status()
}

// LatestFrame returns the last frame produced by playback.
func (s *Service) LatestFrame() model.CohortSnapshot {
	if s.ready() != nil {
		return model.CohortSnapshot{}
	}
	return s.player.Latest()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":    s.started,
		"pointCount": s.pointCount,
		"durationMs": s.duration.Milliseconds(),
		"groups":     len(s.groups),
	}

	if s.started {
		ctx := context.Background()
		status := s.player.Status()
		stats["subjects"] = len(s.store.Subjects(ctx))
		stats["metrics"] = len(s.store.Metrics(ctx))
		stats["series"] = s.store.Count(ctx)
		stats["playbackState"] = status.State
		stats["framesRendered"] = status.Frames
		stats["sessionId"] = status.SessionID
	}

	return stats
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

func (s *Service) checkQuery(ctx context.Context, metricID string, w summary.Window) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := w.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	for _, m := range s.store.Metrics(ctx) {
		if m == metricID {
			return nil
		}
	}
	return &model.UnknownKeyError{MetricID: metricID}
}

func (s *Service) summarize(ctx context.Context, ds model.Dataset, metricID, groupID string, subjects []string, w summary.Window) (model.GroupSummary, error) {
	pool, err := summary.CohortPool(ds, metricID, subjects, w)
	if err != nil {
		return model.GroupSummary{}, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	sum, err := summary.Summarize(groupID, pool)
	if err != nil {
		var empty *model.EmptyPoolError
		if errors.As(err, &empty) {
			empty.MetricID = metricID
		}
		return model.GroupSummary{}, err
	}
	sum.MetricID = metricID
	metrics.RecordSummary(len(sum.Outliers))
	s.logger.Debug(ctx, "group summarised",
		logger.String("group", groupID),
		logger.Int("count", sum.Count),
		logger.Int("outliers", len(sum.Outliers)),
	)
	return sum, nil
}
