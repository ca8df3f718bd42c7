// Package device decides where models run.
package device

import (
	"context"
	"strings"

	"github.com/nguyentantai21042004/recall-scorer/internal/config"
	"github.com/nguyentantai21042004/recall-scorer/internal/logger"
	"github.com/nguyentantai21042004/recall-scorer/pkg/executor"
)

// Resolve maps a configured device setting to cuda or cpu. "auto" picks
// cuda when nvidia-smi lists at least one GPU.
func Resolve(ctx context.Context, setting string, exec executor.Executor, l logger.Logger) string {
	switch setting {
	case config.DeviceCUDA, config.DeviceCPU:
		return setting
	}

	if exec == nil || !exec.Available("nvidia-smi") {
		l.Info(ctx, "nvidia-smi not found, using cpu")
		return config.DeviceCPU
	}

	out, err := exec.Execute(ctx, "nvidia-smi", "-L")
	if err != nil {
		l.Warn(ctx, "GPU detection failed, using cpu: %v", err)
		return config.DeviceCPU
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "GPU ") {
			return config.DeviceCUDA
		}
	}
	return config.DeviceCPU
}
