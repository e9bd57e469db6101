package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
)

func TestHostProbe_Detect(t *testing.T) {
	tests := []struct {
		name   string
		goos   string
		goarch string
		files  []string
		want   string
	}{
		{"apple silicon", "darwin", "arm64", nil, "metal"},
		{"nvidia", "linux", "amd64", []string{nvidiaDriverFile}, "cuda"},
		{"amd", "linux", "amd64", []string{rocmDeviceFile}, "rocm"},
		{"nvidia preferred", "linux", "amd64", []string{rocmDeviceFile, nvidiaDriverFile}, "cuda"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &HostProbe{goos: tt.goos, goarch: tt.goarch, exists: func(path string) bool {
				for _, f := range tt.files {
					if f == path {
						return true
					}
				}
				return false
			}}
			got, err := p.Detect(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHostProbe_NoAccelerator(t *testing.T) {
	p := &HostProbe{goos: "darwin", goarch: "amd64", exists: func(string) bool { return false }}

	_, err := p.Detect(context.Background())
	var accErr *domain.AcceleratorUnavailableError
	require.ErrorAs(t, err, &accErr)
	assert.Contains(t, accErr.Reason, "darwin/amd64")
	assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
}
