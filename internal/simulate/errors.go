package simulate

import "errors"

// Sentinel errors for simulator operations.
var (
	ErrInvalidTechnique   = errors.New("invalid technique id")
	ErrBusy               = errors.New("technique already running")
	ErrSimulatorDir       = errors.New("simulator directory not found")
	ErrBuild              = errors.New("simulator build failed")
	ErrCommand            = errors.New("simulator command failed")
	ErrMissingCredentials = errors.New("missing required AWS credentials")
	ErrInvalidCredentials = errors.New("invalid AWS credentials")
	ErrRunLog             = errors.New("saving run log")
	ErrIdentity           = errors.New("checking AWS identity")
)
