package backend

import (
	"context"
	"os"
	"runtime"

	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
	"github.com/custodia-labs/gapfinder-cli/internal/core/ports/driven"
)

// Ensure HostProbe implements the interface.
var _ driven.AcceleratorProbe = (*HostProbe)(nil)

// Device files that indicate a usable GPU driver.
const (
	nvidiaDriverFile = "/proc/driver/nvidia/version"
	rocmDeviceFile   = "/dev/kfd"
)

// HostProbe detects a GPU on the current machine. Apple Silicon is assumed
// to have Metal. On Linux the NVIDIA and AMD kernel driver files are checked.
type HostProbe struct {
	goos   string
	goarch string
	exists func(path string) bool
}

// NewHostProbe creates a probe for the running platform.
func NewHostProbe() *HostProbe {
	return &HostProbe{
		goos:   runtime.GOOS,
		goarch: runtime.GOARCH,
		exists: func(path string) bool {
			_, err := os.Stat(path)
			return err == nil
		},
	}
}

// Detect returns "metal", "cuda" or "rocm", or an
// *domain.AcceleratorUnavailableError.
func (p *HostProbe) Detect(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch {
	case p.goos == "darwin" && p.goarch == "arm64":
		return "metal", nil
	case p.exists(nvidiaDriverFile):
		return "cuda", nil
	case p.exists(rocmDeviceFile):
		return "rocm", nil
	}

	return "", &domain.AcceleratorUnavailableError{
		Reason: "no supported GPU found on " + p.goos + "/" + p.goarch,
	}
}
