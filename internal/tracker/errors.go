package tracker

import "errors"

var (
	// ErrNotFound is returned by deployment lookups/mutations for an
	// unknown deploymentId.
	ErrNotFound = errors.New("tracker: deployment not found")
	// ErrPortsExhausted is returned by AllocatePorts when a pool has no
	// remaining value at or below 65535.
	ErrPortsExhausted = errors.New("tracker: port pool exhausted")
)
