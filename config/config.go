// Package config holds the SPU configuration record consumed by the
// SmartModule host. Values are resolved here once and passed on as-is.
package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/wippyai/smartmodule/errors"
)

// Environment variables read by ResolveID.
const (
	EnvSpuID    = "FLV_SPU_ID"
	EnvSpuIndex = "SPU_INDEX"
	EnvSpuMin   = "SPU_MIN"
)

// SpuConfig describes one stream processing unit.
type SpuConfig struct {
	PublicEndpoint  string      `toml:"public_endpoint"`
	PrivateEndpoint string      `toml:"private_endpoint"`
	SCEndpoint      string      `toml:"sc_endpoint"`
	Log             Log         `toml:"log"`
	SmartEngine     SmartEngine `toml:"smart_engine"`
	PeerMaxBytes    uint32      `toml:"peer_max_bytes"`
	ID              int32       `toml:"id"`
}

// Log configures replica log storage.
type Log struct {
	BaseDir               string `toml:"base_dir"`
	Size                  string `toml:"size"`
	IndexMaxBytes         uint32 `toml:"index_max_bytes"`
	IndexMaxIntervalBytes uint32 `toml:"index_max_interval_bytes"`
}

// SmartEngine configures the SmartModule sandbox.
type SmartEngine struct {
	// StoreMaxMemory is the memory budget of one SmartModule instance in bytes.
	StoreMaxMemory uint64 `toml:"store_max_memory"`
}

// Default returns the built-in configuration.
func Default() *SpuConfig {
	return &SpuConfig{
		PublicEndpoint:  "0.0.0.0:9005",
		PrivateEndpoint: "0.0.0.0:9006",
		SCEndpoint:      "localhost:9004",
		PeerMaxBytes:    1 << 20,
		Log: Log{
			BaseDir:               "/tmp/fluvio",
			Size:                  "1Gi",
			IndexMaxBytes:         10 << 20,
			IndexMaxIntervalBytes: 4096,
		},
		SmartEngine: SmartEngine{
			StoreMaxMemory: 1 << 30,
		},
	}
}

// Load overlays the TOML file at path on the defaults. Unknown keys are
// rejected.
func Load(path string) (*SpuConfig, error) {
	data, err := os.ReadFile(path)
	if stderrors.Is(err, fs.ErrNotExist) {
		nf := errors.NotFound(errors.PhaseConfig, "config file", path)
		nf.Cause = err
		return nil, nf
	}
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "read "+path)
	}
	return Parse(string(data))
}

// Parse overlays TOML text on the defaults.
func Parse(text string) (*SpuConfig, error) {
	cfg := Default()
	md, err := toml.Decode(text, cfg)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "parse config")
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, errors.New(errors.PhaseConfig, errors.KindFieldUnknown).
			Value(keys).
			Detail("unknown keys: %s", strings.Join(keys, ", ")).
			Build()
	}
	return cfg, nil
}

// ResolveID finds the SPU id from the environment. FLV_SPU_ID wins;
// otherwise SPU_INDEX of the form <name>-<n> is offset by SPU_MIN.
func ResolveID(lookup func(string) (string, bool)) (int32, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	if raw, ok := lookup(EnvSpuID); ok {
		id, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return 0, idError(EnvSpuID, raw, err)
		}
		return int32(id), nil
	}

	name, ok := lookup(EnvSpuIndex)
	if !ok {
		return 0, errors.FieldMissing(errors.PhaseConfig, []string{"env"}, EnvSpuID+" or "+EnvSpuIndex)
	}

	sep := strings.LastIndexByte(name, '-')
	if sep < 0 {
		return 0, idError(EnvSpuIndex, name, fmt.Errorf("want <name>-<index>"))
	}
	index, err := strconv.ParseInt(name[sep+1:], 10, 32)
	if err != nil {
		return 0, idError(EnvSpuIndex, name, err)
	}

	minRaw, ok := lookup(EnvSpuMin)
	if !ok {
		minRaw = "0"
	}
	base, err := strconv.ParseInt(minRaw, 10, 32)
	if err != nil {
		return 0, idError(EnvSpuMin, minRaw, err)
	}

	id := index + base
	if id > math.MaxInt32 || id < math.MinInt32 {
		return 0, errors.Overflow(errors.PhaseConfig, []string{EnvSpuIndex}, id, "int32")
	}
	return int32(id), nil
}

func idError(env, raw string, cause error) error {
	e := errors.InvalidData(errors.PhaseConfig, []string{env}, fmt.Sprintf("invalid spu id %q", raw))
	e.Value = raw
	e.Cause = cause
	return e
}
