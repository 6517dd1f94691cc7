package trie

import (
	"io"

	"github.com/sirupsen/logrus"
)

type Option func(t *Trie) error

// WithLogger sets the logger used for debug tracing of insertions.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(t *Trie) error {
		t.logger = logger
		return nil
	}
}

// WithRecorder sets the recorder notified of insertions and queries.
func WithRecorder(r Recorder) Option {
	return func(t *Trie) error {
		t.recorder = r
		return nil
	}
}

// WithAssertions enables precondition checks on every internal insertion.
// A failed check panics with ErrPrecondition.
func WithAssertions(enabled bool) Option {
	return func(t *Trie) error {
		t.assertions = enabled
		return nil
	}
}

var defaults = []Option{
	func(t *Trie) error {
		if t.logger == nil {
			logger := logrus.New()
			logger.SetOutput(io.Discard)
			t.logger = logger
		}
		return nil
	},
	func(t *Trie) error {
		if t.recorder == nil {
			t.recorder = nopRecorder{}
		}
		return nil
	},
}
