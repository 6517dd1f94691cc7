package trie

import "time"

// Recorder receives events from a Trie, typically to feed metrics.
// Implementations must be safe for concurrent use, since queries may run
// in parallel.
type Recorder interface {
	// ObserveInsert is called after each insertion with the number of nodes
	// it created.
	ObserveInsert(created int, d time.Duration)
	// ObserveQuery is called for each AtomicPredicateIDs call; memo reports
	// whether the insertion memo answered it.
	ObserveQuery(memo bool)
}

type nopRecorder struct{}

func (nopRecorder) ObserveInsert(int, time.Duration) {}

func (nopRecorder) ObserveQuery(bool) {}
