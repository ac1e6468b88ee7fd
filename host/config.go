package host

import (
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/smartmodule"
	"github.com/wippyai/smartmodule/codec"
	"github.com/wippyai/smartmodule/config"
)

// PageSize is the size of one wasm memory page.
const PageSize = 64 * 1024

// Config holds configuration for engine creation
type Config struct {
	// Logger receives host diagnostics. Nil uses Logger().
	Logger *zap.Logger

	// Metrics records invocation counters. Nil disables metrics.
	Metrics *Metrics

	// Stderr receives the guest's standard error. Nil discards it.
	Stderr io.Writer

	// CallTimeout bounds one guest invocation. 0 means no limit.
	// An instance whose call times out is closed.
	CallTimeout time.Duration

	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	MemoryLimitPages uint32

	// Version is the protocol version used to encode requests and decode
	// responses. 0 means smartmodule.APIVersion.
	Version codec.Version
}

// ConfigFromSpu derives a host configuration from the SPU configuration,
// turning the smart engine memory budget into a page limit.
func ConfigFromSpu(spu *config.SpuConfig) *Config {
	cfg := &Config{}
	if spu == nil {
		return cfg
	}
	cfg.MemoryLimitPages = memoryPages(spu.SmartEngine.StoreMaxMemory)
	return cfg
}

func memoryPages(bytes uint64) uint32 {
	if bytes == 0 {
		return 0
	}
	pages := bytes / PageSize
	if pages == 0 {
		pages = 1
	}
	if pages > 65536 {
		pages = 65536
	}
	return uint32(pages)
}

func (c *Config) logger() *zap.Logger {
	if c == nil || c.Logger == nil {
		return Logger()
	}
	return c.Logger
}

func (c *Config) version() codec.Version {
	if c == nil || c.Version == 0 {
		return smartmodule.APIVersion
	}
	return c.Version
}
