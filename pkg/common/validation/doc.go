// Package validation provides common validation utilities for configuration
// parameters across the webpool module.
//
// Every helper returns a *errors.ValidationError so callers can report the
// module, field and rejected value consistently, and so that errors.Is
// matches errors.ErrInvalidConfiguration.
package validation
