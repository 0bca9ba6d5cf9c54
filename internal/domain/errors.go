package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidTransition    = errors.New("invalid transition")
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrInvalidConfig        = errors.New("invalid config")
	ErrProviderFailure      = errors.New("provider failure")
	ErrBatchCancelled       = errors.New("batch cancelled")
)

// ConfigError reports which config fields failed validation for a submission.
// It unwraps to ErrInvalidConfig so callers can branch on the class while the
// handler surfaces the field list.
type ConfigError struct {
	Fields []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s", strings.Join(e.Fields, ", "))
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}
