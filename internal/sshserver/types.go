// SPDX-License-Identifier: MPL-2.0

package sshserver

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidHostAddress is the sentinel error wrapped by InvalidHostAddressError.
	ErrInvalidHostAddress = errors.New("invalid host address")
	// ErrInvalidListenPort is the sentinel error wrapped by InvalidListenPortError.
	ErrInvalidListenPort = errors.New("invalid listen port")
	// ErrInvalidSSHConfig is the sentinel error wrapped by InvalidSSHConfigError.
	ErrInvalidSSHConfig = errors.New("invalid SSH server config")
)

type (
	// HostAddress is the address (IP or hostname) the server binds to.
	HostAddress string

	// ListenPort is a TCP port; zero selects a free port.
	ListenPort int

	// InvalidHostAddressError is returned when a HostAddress is empty or
	// whitespace-only.
	InvalidHostAddressError struct {
		Value HostAddress
	}

	// InvalidListenPortError is returned when a ListenPort is outside
	// 0-65535.
	InvalidListenPortError struct {
		Value ListenPort
	}

	// InvalidSSHConfigError collects the field errors of a Config.
	InvalidSSHConfigError struct {
		FieldErrors []error
	}
)

// String returns the address.
func (h HostAddress) String() string { return string(h) }

// Validate returns nil if the address is non-blank.
func (h HostAddress) Validate() error {
	if strings.TrimSpace(string(h)) == "" {
		return &InvalidHostAddressError{Value: h}
	}
	return nil
}

// String returns the decimal port.
func (p ListenPort) String() string { return fmt.Sprintf("%d", int(p)) }

// Validate returns nil if the port is within 0-65535.
func (p ListenPort) Validate() error {
	if p < 0 || p > 65535 {
		return &InvalidListenPortError{Value: p}
	}
	return nil
}

// Error implements the error interface for InvalidHostAddressError.
func (e *InvalidHostAddressError) Error() string {
	return fmt.Sprintf("invalid host address %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidHostAddress for errors.Is() compatibility.
func (e *InvalidHostAddressError) Unwrap() error { return ErrInvalidHostAddress }

// Error implements the error interface for InvalidListenPortError.
func (e *InvalidListenPortError) Error() string {
	return fmt.Sprintf("invalid listen port %d: must be between 0 and 65535", e.Value)
}

// Unwrap returns ErrInvalidListenPort for errors.Is() compatibility.
func (e *InvalidListenPortError) Unwrap() error { return ErrInvalidListenPort }

// Error implements the error interface for InvalidSSHConfigError.
func (e *InvalidSSHConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return "invalid SSH server config: " + strings.Join(msgs, "; ")
}

// Unwrap returns ErrInvalidSSHConfig and the field errors.
func (e *InvalidSSHConfigError) Unwrap() []error {
	return append([]error{ErrInvalidSSHConfig}, e.FieldErrors...)
}
