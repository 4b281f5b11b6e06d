package memopt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/LuciferMornens/macos-optimizer-beta/internal/models"
	"github.com/LuciferMornens/macos-optimizer-beta/internal/registry"
)

func TestRunPipelineAllStepsSucceedWhenNotCanceled(t *testing.T) {
	pool := NewChunkPool()
	sample := func() models.MemoryStats {
		return models.MemoryStats{Total: 100, Available: 50, Used: 50, PressurePercent: 50}
	}

	performed := runPipeline(nil, pool, fakeClock{}, sample)

	assert.Equal(t, []string{
		"clear_inactive_pages",
		"optimize_file_caches",
		"clear_app_caches",
		"memory_compression_hint",
		"clear_network_caches",
		"trigger_app_gc_hooks",
		"clear_temporary_allocations",
	}, performed)
}

func TestRunPipelineSkipsAllStepsWhenCanceledUpfront(t *testing.T) {
	pool := NewChunkPool()
	token := &registry.Token{}
	token.Cancel()
	sample := func() models.MemoryStats {
		return models.MemoryStats{Total: 100, Available: 1, Used: 99, PressurePercent: 95}
	}

	performed := runPipeline(token, pool, fakeClock{}, sample)
	assert.Empty(t, performed)
}
