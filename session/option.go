package session

import (
	"golang.org/x/sync/semaphore"

	"github.com/ardnew/klisp/analysis"
	"github.com/ardnew/klisp/lang"
	"github.com/ardnew/klisp/log"
)

type config struct {
	in        *lang.Interpreter
	logger    log.Logger
	onPublish func(*analysis.Snapshot)
	sem       *semaphore.Weighted
	maxSteps  int
}

// Option configures a [Session] or a [Manager].
type Option func(config) config

// WithInterpreter sets the interpreter used for evaluation and analysis.
func WithInterpreter(in *lang.Interpreter) Option {
	return func(c config) config {
		c.in = in

		return c
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(c config) config {
		c.logger = l

		return c
	}
}

// WithOnPublish registers fn to be called on the worker goroutine after each
// snapshot is published.
func WithOnPublish(fn func(*analysis.Snapshot)) Option {
	return func(c config) config {
		c.onPublish = fn

		return c
	}
}

// WithMaxSteps bounds the evaluation steps of each top-level form during
// document analysis.
func WithMaxSteps(n int) Option {
	return func(c config) config {
		c.maxSteps = n

		return c
	}
}

func withSemaphore(sem *semaphore.Weighted) Option {
	return func(c config) config {
		c.sem = sem

		return c
	}
}

func makeConfig(opts ...Option) config {
	c := config{maxSteps: analysis.DefaultMaxSteps}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.in == nil {
		c.in = lang.New(lang.WithLogger(c.logger))
	}

	return c
}
