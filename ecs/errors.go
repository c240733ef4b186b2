package ecs

import "github.com/rotisserie/eris"

var (
	// ErrNotFound is returned for unregistered names, ids and archetypes, and
	// for entities that lack a requested component.
	ErrNotFound = eris.New("not found")
	// ErrInvalidOperation is returned for out-of-range ids, stale entities and
	// malformed arguments.
	ErrInvalidOperation = eris.New("invalid operation")
	// ErrWorldLocked is returned by structural mutations attempted while
	// systems are running. Queue them on the iterator's Commands instead.
	ErrWorldLocked = eris.New("world is locked while systems run")
	// ErrClosed is returned by every mutating call after Close.
	ErrClosed = eris.New("world is closed")
)
