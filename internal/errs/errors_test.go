package errs

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"message only", New(NotFound, "Release not found for %s", "owner/repo"), "Release not found for owner/repo"},
		{"with hint", New(LockHeld, "Another ghrel process is running").WithHint("Wait for it to finish."),
			"Another ghrel process is running\nHint: Wait for it to finish."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIs(t *testing.T) {
	inner := New(AuthFailure, "GitHub authentication failed.")
	outer := Wrap(Hook, inner, "post_install failed: %v", inner)
	wrapped := fmt.Errorf("sync: %w", outer)

	tests := []struct {
		name string
		err  error
		kind Kind
		want bool
	}{
		{"outer kind", wrapped, Hook, true},
		{"cause kind", wrapped, AuthFailure, true},
		{"absent kind", wrapped, NotFound, false},
		{"plain error", io.EOF, Internal, false},
		{"nil", nil, Internal, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.kind); got != tt.want {
				t.Errorf("Is(%v, %s) = %v, want %v", tt.err, tt.kind, got, tt.want)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(fmt.Errorf("x: %w", New(RateLimited, "limited"))); got != RateLimited {
		t.Errorf("KindOf() = %s, want %s", got, RateLimited)
	}
	if got := KindOf(io.EOF); got != Internal {
		t.Errorf("KindOf(plain) = %s, want %s", got, Internal)
	}
}

func TestWithContext(t *testing.T) {
	err := New(ConfigInvalid, "Invalid repo").WithPath("/p/jq.toml").WithPackage("jq")
	if err.Path != "/p/jq.toml" || err.Package != "jq" {
		t.Errorf("context = %q, %q", err.Path, err.Package)
	}

	var target *Error
	if !errors.As(fmt.Errorf("load: %w", err), &target) || target.Package != "jq" {
		t.Errorf("errors.As did not recover the package")
	}
}

func TestUnexpected(t *testing.T) {
	if Unexpected(nil) != nil {
		t.Error("Unexpected(nil) != nil")
	}

	classified := New(NoMatch, "no asset")
	if got := Unexpected(classified); got != error(classified) {
		t.Errorf("Unexpected(classified) = %v, want unchanged", got)
	}

	got := Unexpected(io.ErrUnexpectedEOF)
	if KindOf(got) != Internal {
		t.Errorf("KindOf = %s, want %s", KindOf(got), Internal)
	}
	if got.Error() != "unexpected error: unexpected EOF" {
		t.Errorf("Error() = %q", got.Error())
	}
	if !errors.Is(got, io.ErrUnexpectedEOF) {
		t.Error("cause not preserved")
	}
}
