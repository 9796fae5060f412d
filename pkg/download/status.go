// Package download controls asynchronous occurrence download jobs: submit an
// authenticated request, poll it to a terminal state, cancel it, and fetch
// the finished archive.
package download

import (
	"strings"

	"emperror.dev/errors"
)

// Status is the lifecycle state of a download job.
//
//	pending -> running -> {succeeded, failed}
//	pending | running -> cancelled
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether no further transition can happen.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// serviceStatuses maps the service's job statuses onto Status.
var serviceStatuses = map[string]Status{
	"PREPARING":   StatusPending,
	"SUSPENDED":   StatusPending,
	"RUNNING":     StatusRunning,
	"SUCCEEDED":   StatusSucceeded,
	"FAILED":      StatusFailed,
	"FILE_ERASED": StatusFailed,
	"CANCELLED":   StatusCancelled,
	"KILLED":      StatusCancelled,
}

// ParseServiceStatus maps a service status such as "PREPARING" to a Status.
func ParseServiceStatus(s string) (Status, error) {
	if st, ok := serviceStatuses[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return st, nil
	}
	return "", errors.Errorf("unknown download status %q", s)
}
