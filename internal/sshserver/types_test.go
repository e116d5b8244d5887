// SPDX-License-Identifier: MPL-2.0

package sshserver

import (
	"errors"
	"testing"

	"github.com/tagscope/tagscope/internal/tagtree"
)

func TestHostAddress_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value   HostAddress
		wantErr bool
	}{
		{"127.0.0.1", false},
		{"localhost", false},
		{"::1", false},
		{"", true},
		{"   ", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.value), func(t *testing.T) {
			t.Parallel()

			err := tt.value.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidHostAddress) {
				t.Errorf("error should wrap ErrInvalidHostAddress, got %v", err)
			}
		})
	}
}

func TestListenPort_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value   ListenPort
		wantErr bool
	}{
		{0, false},
		{22, false},
		{65535, false},
		{-1, true},
		{65536, true},
	}

	for _, tt := range tests {
		t.Run(tt.value.String(), func(t *testing.T) {
			t.Parallel()

			err := tt.value.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidListenPort) {
				t.Errorf("error should wrap ErrInvalidListenPort, got %v", err)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	cfg := Config{Host: "", Port: -5, Statistics: tagtree.Statistics("verbose")}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() should fail")
	}

	var cfgErr *InvalidSSHConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error should be *InvalidSSHConfigError, got %T", err)
	}
	if len(cfgErr.FieldErrors) != 3 {
		t.Errorf("FieldErrors = %d, want 3", len(cfgErr.FieldErrors))
	}
	for _, target := range []error{ErrInvalidSSHConfig, ErrInvalidHostAddress, ErrInvalidListenPort} {
		if !errors.Is(err, target) {
			t.Errorf("error should wrap %v", target)
		}
	}
}
