package errors

import (
	"fmt"
)

// ParseError represents a YAML parsing failure with optional line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// RuleDefinitionError captures a malformed rule declaration.
type RuleDefinitionError struct {
	Rule    string
	Message string
	Err     error
}

// NewRuleDefinitionError constructs a RuleDefinitionError.
func NewRuleDefinitionError(rule, message string, err error) error {
	return &RuleDefinitionError{Rule: rule, Message: message, Err: err}
}

func (e *RuleDefinitionError) Error() string {
	if e == nil {
		return ""
	}
	if e.Rule != "" {
		return fmt.Sprintf("rule definition error: %s: %s", e.Rule, e.Message)
	}
	return fmt.Sprintf("rule definition error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *RuleDefinitionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ConfigKeyError indicates parameter resolution referenced a missing or
// non-scalar configuration key without a fallback.
type ConfigKeyError struct {
	Rule    string
	Key     string
	Message string
}

// NewConfigKeyError constructs a ConfigKeyError.
func NewConfigKeyError(rule, key, message string) error {
	if message == "" {
		message = "key not found in configuration"
	}
	return &ConfigKeyError{Rule: rule, Key: key, Message: message}
}

func (e *ConfigKeyError) Error() string {
	if e == nil {
		return ""
	}
	if e.Rule != "" {
		return fmt.Sprintf("config key error in rule %s: %q: %s", e.Rule, e.Key, e.Message)
	}
	return fmt.Sprintf("config key error: %q: %s", e.Key, e.Message)
}

// TemplateBindingError indicates a template placeholder referenced a name
// absent from the render context.
type TemplateBindingError struct {
	Rule        string
	Placeholder string
}

// NewTemplateBindingError constructs a TemplateBindingError.
func NewTemplateBindingError(rule, placeholder string) error {
	return &TemplateBindingError{Rule: rule, Placeholder: placeholder}
}

func (e *TemplateBindingError) Error() string {
	if e == nil {
		return ""
	}
	if e.Rule != "" {
		return fmt.Sprintf("template binding error in rule %s: no binding for placeholder %q", e.Rule, e.Placeholder)
	}
	return fmt.Sprintf("template binding error: no binding for placeholder %q", e.Placeholder)
}

// ExecutionError represents a dispatched command exiting non-zero.
type ExecutionError struct {
	Rule     string
	ExitCode int
	Err      error
}

// NewExecutionError constructs an ExecutionError.
func NewExecutionError(rule string, exitCode int, err error) error {
	return &ExecutionError{Rule: rule, ExitCode: exitCode, Err: err}
}

func (e *ExecutionError) Error() string {
	if e == nil {
		return ""
	}
	if e.Rule != "" {
		return fmt.Sprintf("execution error on rule %s: exit code %d", e.Rule, e.ExitCode)
	}
	return fmt.Sprintf("execution error: exit code %d", e.ExitCode)
}

// Unwrap exposes the root error.
func (e *ExecutionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
