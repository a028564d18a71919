// Copyright © 2026 Gridmux contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: grid/errors.go
// Summary: Error taxonomy for the layout engine.
// Usage: Sentinel values wrapped by engine operations; callers match with errors.Is.

package grid

import "errors"

var (
	// ErrNotFound reports an unknown node id.
	ErrNotFound = errors.New("node not found")

	// ErrInvalidOperation reports an operation that is not legal in the
	// current state, e.g. focusing a destroyed leaf or closing the sole
	// root leaf under the reject policy.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrCapacity reports a split or resize that would violate the
	// minimum pane size policy.
	ErrCapacity = errors.New("minimum pane size violated")

	// ErrContentInit wraps an asynchronous content initialization
	// failure. It is retried automatically and only surfaces once the
	// retry budget is exhausted.
	ErrContentInit = errors.New("content initialization failed")

	// ErrStructuralInvariant reports a broken tree invariant. This is a
	// defensive internal check; observing it means a defect in the
	// engine, never a recoverable runtime condition.
	ErrStructuralInvariant = errors.New("structural invariant violation")
)
