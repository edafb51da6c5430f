package dispatch

import "errors"

var (
	ErrTransportRequired  = errors.New("dispatch: transport is required")
	ErrProbeRequired      = errors.New("dispatch: network probe is required")
	ErrCheckpointRequired = errors.New("dispatch: checkpoint store is required")
)
