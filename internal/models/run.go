package models

import (
	"errors"
	"time"
)

var (
	ErrMissingField = errors.New("missing required field")
	ErrInvalidTime  = errors.New("invalid timestamp")
	ErrInvalidUID   = errors.New("invalid run uid")
)

// Run is one run header: the start document and the stop document.
type Run struct {
	Start RunStart
	Stop  RunStop
}

type RunStart struct {
	UID       string
	Time      time.Time
	PlanName  string
	Detectors []string
	Motors    []string
}

type RunStop struct {
	ExitStatus ExitStatus
}

type ExitStatus string

const (
	ExitStatusSuccess ExitStatus = "success"
	ExitStatusFail    ExitStatus = "fail"
	ExitStatusAbort   ExitStatus = "abort"
)
