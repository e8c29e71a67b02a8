package errkind

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestKindsMatchThroughWrapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"missing element", MissingUIElement("score"), ErrMissingUIElement},
		{"asset", AssetLoad("sounds/hit.mp3", fs.ErrNotExist), ErrAssetLoad},
		{"config", InvalidConfig("PlayerSpeed", "must not be negative"), ErrInvalidConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("startup: %w", tt.err)
			if !errors.Is(wrapped, tt.kind) {
				t.Fatalf("errors.Is(%v, %v) = false", wrapped, tt.kind)
			}
			for _, other := range []error{ErrMissingUIElement, ErrAssetLoad, ErrInvalidConfiguration} {
				if other != tt.kind && errors.Is(wrapped, other) {
					t.Fatalf("%v unexpectedly matches %v", wrapped, other)
				}
			}
		})
	}
}

func TestAssetLoadKeepsCause(t *testing.T) {
	err := AssetLoad("env.png", fs.ErrNotExist)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("cause lost: %v", err)
	}
	if got, want := err.Error(), "asset load failure: env.png: file does not exist"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}
