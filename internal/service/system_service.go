package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
)

// Health states
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

const componentTimeout = 3 * time.Second

// Pinger is a dependency that can report whether it answers
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type component struct {
	name     string
	pinger   Pinger
	required bool
}

// SystemService reports service health and headline statistics
type SystemService struct {
	components []component
	users      UserRepository
	farms      FarmRepository
	fields     FieldRepository
	sessions   SessionRepository
	crops      CropRepository
	gatherer   prometheus.Gatherer
	version    string
	started    time.Time
	log        *zap.Logger
}

// NewSystemService creates a new system service
func NewSystemService(
	users UserRepository,
	farms FarmRepository,
	fields FieldRepository,
	sessions SessionRepository,
	crops CropRepository,
	version string,
	log *zap.Logger,
) *SystemService {
	return &SystemService{
		users:    users,
		farms:    farms,
		fields:   fields,
		sessions: sessions,
		crops:    crops,
		gatherer: prometheus.DefaultGatherer,
		version:  version,
		started:  time.Now(),
		log:      log,
	}
}

// AddComponent registers a dependency. A failing required component makes
// the service unhealthy, an optional one only degraded.
func (s *SystemService) AddComponent(name string, p Pinger, required bool) {
	s.components = append(s.components, component{name: name, pinger: p, required: required})
}

// Version returns the build version
func (s *SystemService) Version() string { return s.version }

// Uptime returns how long the process has been running
func (s *SystemService) Uptime() time.Duration { return time.Since(s.started) }

// Check pings every component concurrently
func (s *SystemService) Check(ctx context.Context) (string, map[string]domain.ComponentStatus) {
	ctx, cancel := context.WithTimeout(ctx, componentTimeout)
	defer cancel()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]domain.ComponentStatus, len(s.components))
		overall = StatusHealthy
	)
	for _, c := range s.components {
		wg.Add(1)
		go func(c component) {
			defer wg.Done()
			start := time.Now()
			err := c.pinger.Ping(ctx)
			st := domain.ComponentStatus{Status: StatusHealthy, LatencyMS: time.Since(start).Milliseconds()}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				st.Status = StatusUnhealthy
				st.Error = err.Error()
				switch {
				case c.required:
					overall = StatusUnhealthy
				case overall == StatusHealthy:
					overall = StatusDegraded
				}
			}
			results[c.name] = st
		}(c)
	}
	wg.Wait()
	return overall, results
}

// Ready reports the first required component that does not answer
func (s *SystemService) Ready(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, componentTimeout)
	defer cancel()
	for _, c := range s.components {
		if !c.required {
			continue
		}
		if err := c.pinger.Ping(ctx); err != nil {
			return fmt.Errorf("%s unavailable: %w", c.name, err)
		}
	}
	return nil
}

// Status combines component health with headline counts
func (s *SystemService) Status(ctx context.Context) (*domain.SystemStatus, error) {
	overall, components := s.Check(ctx)
	stats, err := s.Stats(ctx)
	if err != nil {
		s.log.Warn("system stats unavailable", zap.Error(err))
		if overall == StatusHealthy {
			overall = StatusDegraded
		}
	}
	return &domain.SystemStatus{
		Status:     overall,
		Version:    s.version,
		Uptime:     s.Uptime().Round(time.Second).String(),
		Components: components,
		Stats:      stats,
		CheckedAt:  time.Now().UTC(),
	}, nil
}

// Stats counts users, farms, fields, active sessions and crops
func (s *SystemService) Stats(ctx context.Context) (*domain.SystemStats, error) {
	var (
		stats domain.SystemStats
		err   error
	)
	if stats.Users, err = s.users.Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if stats.Farms, err = s.farms.Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count farms: %w", err)
	}
	if stats.Fields, err = s.fields.Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count fields: %w", err)
	}
	if stats.ActiveSessions, err = s.sessions.CountAllActive(ctx); err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}
	if stats.Crops, err = s.crops.Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count crops: %w", err)
	}
	return &stats, nil
}

// MetricsSummary totals the application's metrics by name and label
// values, e.g. smartcrop_weather_provider_calls_total{api,ok}.
func (s *SystemService) MetricsSummary() (map[string]float64, error) {
	families, err := s.gatherer.Gather()
	if err != nil {
		return nil, fmt.Errorf("failed to gather metrics: %w", err)
	}
	summary := make(map[string]float64)
	for _, mf := range families {
		name := mf.GetName()
		if !strings.HasPrefix(name, "smartcrop_") {
			continue
		}
		for _, m := range mf.GetMetric() {
			var value float64
			switch {
			case m.GetCounter() != nil:
				value = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				value = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				value = float64(m.GetHistogram().GetSampleCount())
			default:
				continue
			}
			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetValue())
			}
			key := name
			if len(labels) > 0 {
				key += "{" + strings.Join(labels, ",") + "}"
			}
			summary[key] += value
		}
	}
	return summary, nil
}
