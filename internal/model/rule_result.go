package model

import (
	"time"
)

const (
	// StatusPending indicates a rule invocation has not started yet.
	StatusPending = "pending"
	// StatusParamsResolved indicates parameters have been bound against the configuration.
	StatusParamsResolved = "params_resolved"
	// StatusRendered indicates the shell template has been rendered.
	StatusRendered = "rendered"
	// StatusDispatched indicates the rendered command has been handed to the shell.
	StatusDispatched = "dispatched"
	// StatusSucceeded marks a dispatched command that exited zero.
	StatusSucceeded = "succeeded"
	// StatusFailed marks a structural fault or a non-zero exit.
	StatusFailed = "failed"
	// StatusCanceled marks an invocation whose child process was terminated early.
	StatusCanceled = "canceled"
)

// RuleResult is the terminal record of one rule invocation. It is never
// mutated after the engine returns it.
type RuleResult struct {
	Rule      string
	Status    string
	ExitCode  int
	Command   string
	Message   string
	Error     error
	States    []string
	Duration  time.Duration
	Timestamp time.Time
}

// Succeeded reports whether the invocation reached a successful exit.
func (r RuleResult) Succeeded() bool {
	return r.Status == StatusSucceeded
}
