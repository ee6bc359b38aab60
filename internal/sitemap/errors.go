package sitemap

import (
	"errors"
	"fmt"
)

// ErrBlockOutOfRange is wrapped by the ConfigError Locations returns when
// the block number is past the last block.
var ErrBlockOutOfRange = errors.New("selected sitemap does not contain enough blocks for given block number")

// ConfigError reports a walker that cannot run with the configuration it
// was given. It is returned by New and, for block selection, by Locations.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "sitemap config: " + e.Err.Error()
	}
	return fmt.Sprintf("sitemap config %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func configErr(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Err: fmt.Errorf(format, args...)}
}
