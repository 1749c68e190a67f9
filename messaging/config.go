package messaging

import (
	"fmt"
	"time"

	"github.com/arloliu/go-mbrtu/logger"
	"github.com/arloliu/go-mbrtu/rtu"
	"github.com/arloliu/go-mbrtu/transport"
)

// Default configuration values.
const (
	DefaultRetries          = 2
	DefaultTimeout          = 500 * time.Millisecond
	DefaultDiscardDataDelay = 0 // disabled
	DefaultWriteQueueSize   = 16
)

// Configuration limits.
const (
	MinTimeout = 1 * time.Millisecond
	MaxTimeout = 10 * time.Minute

	MaxRetries = 100
)

// Clock supplies the time source for the discard-data delay.
type Clock = transport.Clock

// SystemClock is the wall clock.
type SystemClock = transport.SystemClock

// ExceptionHandler receives errors that do not end the engine: framing
// errors, request handler failures and transport I/O errors. It may be
// called concurrently from the transport's read goroutine and the writer task.
type ExceptionHandler func(err error)

// Config holds the configuration of a MessageControl.
type Config struct {
	retries          int
	timeout          time.Duration
	discardDataDelay time.Duration
	writeQueueSize   int

	keyFactory       rtu.KeyFactory
	clock            Clock
	exceptionHandler ExceptionHandler
	logger           logger.Logger
}

func newConfig(opts []Option) (*Config, error) {
	cfg := &Config{
		retries:          DefaultRetries,
		timeout:          DefaultTimeout,
		discardDataDelay: DefaultDiscardDataDelay,
		writeQueueSize:   DefaultWriteQueueSize,
		keyFactory:       rtu.DefaultKeyFactory,
		clock:            SystemClock{},
		logger:           logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.exceptionHandler == nil {
		l := cfg.logger
		cfg.exceptionHandler = func(err error) {
			l.Warn("receive error", "error", err)
		}
	}

	return cfg, nil
}

// Retries returns the number of retries after the first attempt.
func (cfg *Config) Retries() int { return cfg.retries }

// Timeout returns the wait per attempt.
func (cfg *Config) Timeout() time.Duration { return cfg.timeout }

// DiscardDataDelay returns the silence after which buffered bytes are discarded.
func (cfg *Config) DiscardDataDelay() time.Duration { return cfg.discardDataDelay }

// WriteQueueSize returns the capacity of the writer task's queue.
func (cfg *Config) WriteQueueSize() int { return cfg.writeQueueSize }

// --- Option ---

// Option is a functional option for configuring a MessageControl.
type Option interface {
	apply(cfg *Config) error
}

type optFunc func(*Config) error

func (f optFunc) apply(cfg *Config) error { return f(cfg) }

// WithRetries sets how many times a request is re-sent after the first
// attempt times out.
func WithRetries(n int) Option {
	return optFunc(func(cfg *Config) error {
		if n < 0 || n > MaxRetries {
			return fmt.Errorf("messaging: retries %d out of range [0, %d]", n, MaxRetries)
		}
		cfg.retries = n

		return nil
	})
}

// WithTimeout sets how long each attempt waits for a response.
func WithTimeout(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d < MinTimeout || d > MaxTimeout {
			return fmt.Errorf("messaging: timeout %v out of range [%v, %v]", d, MinTimeout, MaxTimeout)
		}
		cfg.timeout = d

		return nil
	})
}

// WithDiscardDataDelay discards buffered bytes when the line has been
// silent for longer than d before new bytes arrive. Zero disables it.
func WithDiscardDataDelay(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d < 0 {
			return fmt.Errorf("messaging: negative discard data delay %v", d)
		}
		cfg.discardDataDelay = d

		return nil
	})
}

// WithWriteQueueSize sets the capacity of the writer task's queue.
func WithWriteQueueSize(n int) Option {
	return optFunc(func(cfg *Config) error {
		if n < 1 {
			return fmt.Errorf("messaging: write queue size %d must be positive", n)
		}
		cfg.writeQueueSize = n

		return nil
	})
}

// WithKeyFactory sets how correlation keys are derived.
func WithKeyFactory(f rtu.KeyFactory) Option {
	return optFunc(func(cfg *Config) error {
		if f == nil {
			return fmt.Errorf("messaging: nil key factory")
		}
		cfg.keyFactory = f

		return nil
	})
}

// WithClock sets the time source.
func WithClock(c Clock) Option {
	return optFunc(func(cfg *Config) error {
		if c == nil {
			return fmt.Errorf("messaging: nil clock")
		}
		cfg.clock = c

		return nil
	})
}

// WithExceptionHandler sets the handler for errors recovered by the
// receive loop. The default logs them at warn level.
func WithExceptionHandler(h ExceptionHandler) Option {
	return optFunc(func(cfg *Config) error {
		cfg.exceptionHandler = h
		return nil
	})
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg *Config) error {
		if l == nil {
			return fmt.Errorf("messaging: nil logger")
		}
		cfg.logger = l

		return nil
	})
}
