package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"rules-radar/internal/domain/entity"
)

const (
	circuitBreakerThreshold = 5               // consecutive failures before opening
	circuitBreakerTimeout   = 5 * time.Minute // how long the breaker stays open
	workerPoolTimeout       = 5 * time.Second // wait for a delivery slot
	sendTimeout             = 30 * time.Second
)

// Service fans one batch of change items out to every enabled channel.
// Delivery is synchronous per batch: Deliver returns once every channel
// has finished or given up, so the worker can log the pass outcome.
type Service struct {
	channels      []Channel
	workerPool    chan struct{}
	channelHealth map[string]*channelHealth
	healthMu      sync.RWMutex
}

// channelHealth tracks circuit breaker state for one channel.
type channelHealth struct {
	consecutiveFailures int
	disabledUntil       time.Time
	mu                  sync.Mutex
}

// NewService creates a notification service. maxConcurrent bounds how
// many channels deliver at the same time.
func NewService(channels []Channel, maxConcurrent int) *Service {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	svc := &Service{
		channels:      channels,
		workerPool:    make(chan struct{}, maxConcurrent),
		channelHealth: make(map[string]*channelHealth, len(channels)),
	}
	for _, ch := range channels {
		svc.channelHealth[ch.Name()] = &channelHealth{}
	}
	return svc
}

// Deliver renders the batch into region sections and sends them through
// every enabled channel. Sections are independent: one failing section
// never blocks the remaining ones, and one failing channel never blocks
// the others. The returned error joins the per-channel failures.
func (s *Service) Deliver(ctx context.Context, items []*entity.Item) error {
	if len(items) == 0 {
		return nil
	}

	sections := BuildSections(items)
	if len(sections) == 0 {
		return nil
	}

	enabled := make([]Channel, 0, len(s.channels))
	for _, ch := range s.channels {
		if ch.IsEnabled() {
			enabled = append(enabled, ch)
		}
	}
	SetChannelsEnabled(float64(len(enabled)))

	if len(enabled) == 0 {
		slog.Debug("no notification channels enabled", slog.Int("items", len(items)))
		return nil
	}

	slog.Info("dispatching change report",
		slog.Int("items", len(items)),
		slog.Int("sections", len(sections)),
		slog.Int("channels", len(enabled)))

	var wg sync.WaitGroup
	errCh := make(chan error, len(enabled))

	for _, ch := range enabled {
		channel := ch
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					slog.Error("panic in notification channel",
						slog.String("channel", channel.Name()),
						slog.Any("panic", r),
						slog.String("stack", string(debug.Stack())))
					errCh <- fmt.Errorf("%s: panic during delivery", channel.Name())
				}
			}()

			select {
			case s.workerPool <- struct{}{}:
				defer func() { <-s.workerPool }()
			case <-time.After(workerPoolTimeout):
				RecordDropped(channel.Name(), "pool_full")
				errCh <- fmt.Errorf("%s: %w", channel.Name(), ErrNotificationDropped)
				return
			}

			if err := s.deliverToChannel(ctx, channel, sections); err != nil {
				errCh <- fmt.Errorf("%s: %w", channel.Name(), err)
			}
		}()
	}

	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// deliverToChannel sends every section through one channel. Messages of
// a section go out in order; a failure skips the rest of that section
// only. Section outcomes feed the circuit breaker.
func (s *Service) deliverToChannel(ctx context.Context, channel Channel, sections []Section) error {
	health := s.getChannelHealth(channel.Name())

	health.mu.Lock()
	if time.Now().Before(health.disabledUntil) {
		until := health.disabledUntil
		health.mu.Unlock()
		RecordDropped(channel.Name(), "circuit_open")
		slog.Warn("channel temporarily disabled by circuit breaker",
			slog.String("channel", channel.Name()),
			slog.Time("disabled_until", until))
		return ErrCircuitBreakerOpen
	}
	health.mu.Unlock()

	var errs []error
	for _, section := range sections {
		if err := s.sendSection(ctx, channel, section); err != nil {
			RecordSection(string(section.Region), false)
			s.recordFailure(channel.Name(), health)
			errs = append(errs, fmt.Errorf("section %s: %w", section.Region, err))
			continue
		}
		RecordSection(string(section.Region), true)
		s.recordSuccess(health)
	}
	return errors.Join(errs...)
}

func (s *Service) sendSection(ctx context.Context, channel Channel, section Section) error {
	for i, message := range section.Messages {
		sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
		RecordDispatch(channel.Name())

		start := time.Now()
		err := channel.Send(sendCtx, message)
		duration := time.Since(start)
		cancel()

		if err != nil {
			RecordFailure(channel.Name(), duration)
			slog.Warn("section delivery failed",
				slog.String("channel", channel.Name()),
				slog.String("region", string(section.Region)),
				slog.Int("message_index", i),
				slog.Duration("send_duration", duration),
				slog.Any("error", err))
			return err
		}
		RecordSuccess(channel.Name(), duration)
	}
	return nil
}

// ReportPassFailure forwards a pass-level failure to every channel with
// an operator destination. Best effort; failures are only logged.
func (s *Service) ReportPassFailure(ctx context.Context, passErr error) {
	if passErr == nil {
		return
	}
	message := fmt.Sprintf("⚠️ Сбой цикла опроса: %s", html.EscapeString(passErr.Error()))
	for _, ch := range s.channels {
		reporter, ok := ch.(ErrorReporter)
		if !ok || !ch.IsEnabled() {
			continue
		}
		if err := reporter.ReportError(ctx, message); err != nil {
			slog.Warn("failed to report pass failure",
				slog.String("channel", ch.Name()),
				slog.Any("error", err))
		}
	}
}

func (s *Service) getChannelHealth(name string) *channelHealth {
	s.healthMu.RLock()
	defer s.healthMu.RUnlock()
	return s.channelHealth[name]
}

func (s *Service) recordFailure(name string, health *channelHealth) {
	health.mu.Lock()
	defer health.mu.Unlock()
	health.consecutiveFailures++
	if health.consecutiveFailures >= circuitBreakerThreshold {
		health.disabledUntil = time.Now().Add(circuitBreakerTimeout)
		RecordCircuitBreakerOpen(name)
		slog.Error("circuit breaker opened for channel",
			slog.String("channel", name),
			slog.Int("consecutive_failures", health.consecutiveFailures))
	}
}

func (s *Service) recordSuccess(health *channelHealth) {
	health.mu.Lock()
	defer health.mu.Unlock()
	health.consecutiveFailures = 0
}

// ChannelHealthStatus is one channel's breaker state, for health checks.
type ChannelHealthStatus struct {
	Name               string
	Enabled            bool
	CircuitBreakerOpen bool
	DisabledUntil      *time.Time
}

// GetChannelHealth returns the breaker state of every channel.
func (s *Service) GetChannelHealth() []ChannelHealthStatus {
	s.healthMu.RLock()
	defer s.healthMu.RUnlock()

	statuses := make([]ChannelHealthStatus, 0, len(s.channels))
	for _, ch := range s.channels {
		health := s.channelHealth[ch.Name()]

		health.mu.Lock()
		var disabledUntil *time.Time
		open := false
		if time.Now().Before(health.disabledUntil) {
			open = true
			until := health.disabledUntil
			disabledUntil = &until
		}
		health.mu.Unlock()

		statuses = append(statuses, ChannelHealthStatus{
			Name:               ch.Name(),
			Enabled:            ch.IsEnabled(),
			CircuitBreakerOpen: open,
			DisabledUntil:      disabledUntil,
		})
	}
	return statuses
}
