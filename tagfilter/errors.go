package tagfilter

import "errors"

var (
	// ErrNotTriggered is returned for a URL outside the configured ranking
	// and search listings.
	ErrNotTriggered = errors.New("tagfilter: url is not a filterable listing")

	// ErrPollExhausted is returned by Bootstrap when a bounded poll gives up
	// before any row appeared.
	ErrPollExhausted = errors.New("tagfilter: rows never appeared")

	// ErrUnknownAction is returned by Dispatch for an action it cannot run.
	ErrUnknownAction = errors.New("tagfilter: unknown control action")

	// ErrNotControl is returned by Click when the node is not inside a
	// filter control.
	ErrNotControl = errors.New("tagfilter: node is not a filter control")

	// ErrNoTagContainer marks a row without a tag container. Such a row is
	// treated as having zero tags; it is never fatal.
	ErrNoTagContainer = errors.New("tagfilter: row has no tag container")

	errNotReady = errors.New("tagfilter: rows not present yet")
)
