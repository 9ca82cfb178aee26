package snake

import (
	"errors"
	"fmt"
)

// ErrPlacementExhausted 随机放置在尝试上限内找不到空闲格子
var ErrPlacementExhausted = errors.New("no free cell found for placement")

// ConfigurationError reports a board/snake configuration the engine cannot run with.
type ConfigurationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("snake: invalid configuration %s: %s", e.Field, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func configErr(field, format string, args ...interface{}) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
