package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
)

func testConfig() Config {
	return Config{
		Name:             "test-circuit",
		MaxRequests:      3,
		Interval:         10 * time.Second,
		Timeout:          time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

func TestNew(t *testing.T) {
	cb := New(testConfig())

	if cb.Name() != "test-circuit" {
		t.Errorf("expected name='test-circuit', got %q", cb.Name())
	}
	if cb.State() != gobreaker.StateClosed {
		t.Errorf("expected initial state=Closed, got %v", cb.State())
	}
}

func TestCircuitBreaker_Execute(t *testing.T) {
	cb := New(testConfig())

	result, err := cb.Execute(func() (interface{}, error) {
		return "summary text", nil
	})
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if result != "summary text" {
		t.Errorf("expected passthrough result, got %v", result)
	}

	callErr := errors.New("upstream unavailable")
	result, err = cb.Execute(func() (interface{}, error) {
		return nil, callErr
	})
	if err != callErr {
		t.Errorf("expected the call error, got %v", err)
	}
	if result != nil {
		t.Errorf("expected nil result on failure, got %v", result)
	}
	if cb.State() != gobreaker.StateClosed {
		t.Errorf("single failure must not trip the circuit, got %v", cb.State())
	}
}

func TestCircuitBreaker_TripsAtFailureRatio(t *testing.T) {
	cb := New(testConfig())

	// 5 failures and 1 success: above MinRequests, ratio above 0.6.
	callErr := errors.New("upstream unavailable")
	for i := 0; i < 4; i++ {
		_, _ = cb.Execute(func() (interface{}, error) { return nil, callErr })
	}
	_, _ = cb.Execute(func() (interface{}, error) { return "ok", nil })
	_, _ = cb.Execute(func() (interface{}, error) { return nil, callErr })

	if !cb.IsOpen() {
		t.Fatalf("expected open circuit, got %v", cb.State())
	}

	// Open circuit rejects without running the function.
	_, err := cb.Execute(func() (interface{}, error) {
		t.Error("function must not run while the circuit is open")
		return nil, nil
	})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected ErrOpenState, got %v", err)
	}
}

func TestCircuitBreaker_StaysClosedBelowMinRequests(t *testing.T) {
	cfg := testConfig()
	cfg.FailureThreshold = 0.5
	cfg.MinRequests = 10
	cb := New(cfg)

	callErr := errors.New("upstream unavailable")
	for i := 0; i < 4; i++ {
		if _, err := cb.Execute(func() (interface{}, error) { return nil, callErr }); err != callErr {
			t.Errorf("request %d: expected the call error, got %v", i, err)
		}
	}

	if cb.State() != gobreaker.StateClosed {
		t.Errorf("expected Closed below MinRequests, got %v", cb.State())
	}
}

func TestCircuitBreaker_RecoversThroughHalfOpen(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRequests = 2
	cfg.Timeout = 100 * time.Millisecond
	cb := New(cfg)

	callErr := errors.New("upstream unavailable")
	for i := 0; i < 6; i++ {
		_, _ = cb.Execute(func() (interface{}, error) { return nil, callErr })
	}
	if cb.State() != gobreaker.StateOpen {
		t.Fatalf("circuit should be open, got %v", cb.State())
	}

	time.Sleep(150 * time.Millisecond)

	if _, err := cb.Execute(func() (interface{}, error) { return "ok", nil }); err != nil {
		t.Errorf("expected success in half-open state, got %v", err)
	}
	if cb.State() == gobreaker.StateOpen {
		t.Errorf("circuit should leave open state after half-open success, got %v", cb.State())
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("store")

	if cfg.Name != "store" {
		t.Errorf("expected Name='store', got %q", cfg.Name)
	}
	if cfg.FailureThreshold != 0.6 {
		t.Errorf("expected FailureThreshold=0.6, got %f", cfg.FailureThreshold)
	}
	if cfg.MinRequests != 5 {
		t.Errorf("expected MinRequests=5, got %d", cfg.MinRequests)
	}
}

func TestLLMAPIConfig(t *testing.T) {
	cfg := LLMAPIConfig()

	if cfg.Name != "llm-api" {
		t.Errorf("expected Name='llm-api', got %q", cfg.Name)
	}
	if cfg.Timeout != 60*time.Second {
		t.Errorf("expected Timeout=60s, got %v", cfg.Timeout)
	}
}
