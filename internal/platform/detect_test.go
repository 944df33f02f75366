package platform

import (
	"context"
	"runtime"
	"testing"

	"github.com/samuelstevens/ghrel/internal/errs"
)

func TestRealDetector_Detect(t *testing.T) {
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		t.Skip("unsupported host platform")
	}
	if runtime.GOARCH != "amd64" && runtime.GOARCH != "arm64" {
		t.Skip("unsupported host architecture")
	}

	info, err := NewDetector().Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if info.OS != runtime.GOOS {
		t.Errorf("OS = %v, want %v", info.OS, runtime.GOOS)
	}
	if info.Arch != X86_64 && info.Arch != ARM64 {
		t.Errorf("Arch = %v, want x86_64 or arm64", info.Arch)
	}
	if info.ArchRaw != runtime.GOARCH {
		t.Errorf("ArchRaw = %v, want %v", info.ArchRaw, runtime.GOARCH)
	}
	if info.Platform != "" && info.Family == "" {
		t.Error("Family should be set when Platform is set")
	}
	if runtime.GOOS != "linux" && info.GetDistro() != nil {
		t.Errorf("GetDistro() = %+v on non-Linux", info.GetDistro())
	}
}

func TestRealDetector_Normalizes(t *testing.T) {
	tests := []struct {
		goos, goarch string
		wantKey      string
		wantErr      bool
	}{
		{"darwin", "arm64", "darwin-arm64", false},
		{"darwin", "amd64", "darwin-x86_64", false},
		{"windows", "amd64", "", true},
		{"linux", "386", "", true},
		{"freebsd", "arm64", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.goos+"/"+tt.goarch, func(t *testing.T) {
			d := &RealDetector{goos: tt.goos, goarch: tt.goarch}
			info, err := d.Detect(context.Background())
			if tt.wantErr {
				if !errs.Is(err, errs.ConfigInvalid) {
					t.Fatalf("Detect() error = %v, want ConfigInvalid", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Detect() error = %v", err)
			}
			if got := info.Key(); got != tt.wantKey {
				t.Errorf("Key() = %q, want %q", got, tt.wantKey)
			}
		})
	}
}

func TestStatic_Detect(t *testing.T) {
	s := Static{Info: Info{OS: Linux, Arch: ARM64}}
	info, err := s.Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	info.OS = Darwin
	again, _ := s.Detect(context.Background())
	if again.OS != Linux {
		t.Error("Static.Detect() must return an independent copy")
	}
}
