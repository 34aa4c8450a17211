package alarmreport

import "errors"

var (
	// ErrInvalidWindow is returned when a time window is inverted or has a missing endpoint.
	ErrInvalidWindow = errors.New("alarm report: invalid time window")
	// ErrStoreUnavailable is returned when a historian or report store query cannot execute.
	ErrStoreUnavailable = errors.New("alarm report: store unavailable")
	// ErrRender is returned when document assembly fails.
	ErrRender = errors.New("alarm report: render failed")
	// ErrNotFound is returned when a stored report does not exist.
	ErrNotFound = errors.New("alarm report: not found")
	// ErrStamp is returned when a stored document cannot be stamped.
	ErrStamp = errors.New("alarm report: stamp failed")
	// ErrNoContent is returned when generation is skipped for an empty window.
	ErrNoContent = errors.New("alarm report: no content")
)
