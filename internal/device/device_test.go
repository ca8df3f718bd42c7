package device

import (
	"context"
	"errors"
	"testing"

	"github.com/nguyentantai21042004/recall-scorer/internal/config"
	"github.com/nguyentantai21042004/recall-scorer/internal/logger"
)

type fakeExecutor struct {
	available bool
	out       string
	err       error
	calls     int
}

func (f *fakeExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	f.calls++
	return f.out, f.err
}

func (f *fakeExecutor) Available(name string) bool { return f.available }

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		setting   string
		exec      *fakeExecutor
		want      string
		wantCalls int
	}{
		{
			name:    "explicit cpu",
			setting: config.DeviceCPU,
			exec:    &fakeExecutor{available: true, out: "GPU 0: A100"},
			want:    config.DeviceCPU,
		},
		{
			name:    "explicit cuda",
			setting: config.DeviceCUDA,
			exec:    &fakeExecutor{},
			want:    config.DeviceCUDA,
		},
		{
			name:      "auto with gpu",
			setting:   config.DeviceAuto,
			exec:      &fakeExecutor{available: true, out: "GPU 0: NVIDIA A100-SXM4-40GB (UUID: GPU-1)\n"},
			want:      config.DeviceCUDA,
			wantCalls: 1,
		},
		{
			name:    "auto without nvidia-smi",
			setting: config.DeviceAuto,
			exec:    &fakeExecutor{},
			want:    config.DeviceCPU,
		},
		{
			name:      "auto detection failure",
			setting:   config.DeviceAuto,
			exec:      &fakeExecutor{available: true, err: errors.New("driver mismatch")},
			want:      config.DeviceCPU,
			wantCalls: 1,
		},
		{
			name:      "auto no gpus listed",
			setting:   config.DeviceAuto,
			exec:      &fakeExecutor{available: true, out: "No devices found.\n"},
			want:      config.DeviceCPU,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(context.Background(), tt.setting, tt.exec, logger.Discard())
			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
			if tt.exec.calls != tt.wantCalls {
				t.Errorf("Execute calls = %d, want %d", tt.exec.calls, tt.wantCalls)
			}
		})
	}
}
