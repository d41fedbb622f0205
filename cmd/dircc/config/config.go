package config

import (
	"os"
	"time"

	"github.com/koding/multiconfig"
)

// Config defines dircc configuration
type Config struct {
	// build
	SrcDir       string `flagUsage:"specifies the directory containing the source files" default:"."`
	BuildDir     string `flagUsage:"specifies the build output directory (recreated empty on every run)" default:"build"`
	OutputSuffix string `flagUsage:"specifies the suffix appended to artifact names" default:".out"`
	Parallelism  int    `flagUsage:"control the # of concurrent compiler processes" default:"1"`
	LegacyMatch  bool   `flagUsage:"reproduce the historical literal *.cpp name comparison instead of suffix matching"`

	// toolchain
	ToolchainConf  string        `flagUsage:"specifies the toolchain configuration file" default:"toolchain.yaml"`
	FlagsConf      string        `flagUsage:"specifies the per-extension extra compiler flags file" default:"flags.yaml"`
	CompileTimeout time.Duration `flagUsage:"specifies the wall clock limit for a single compiler invocation"`
	OutputLimit    int64         `flagUsage:"specifies max captured compiler diagnostics per stream in bytes"`

	// artifact store
	ArtifactTimeout time.Duration `flagUsage:"specifies TTL for artifacts in serve mode"`

	// server config
	Serve         bool   `flagUsage:"run as an HTTP build service instead of a one-shot build"`
	HTTPAddr      string `flagUsage:"specifies the http binding address" default:":5050"`
	MonitorAddr   string `flagUsage:"specifies the metrics binding address" default:":5052"`
	AuthToken     string `flagUsage:"bearer token auth for the REST API"`
	EnableDebug   bool   `flagUsage:"enable debug endpoint"`
	EnableMetrics bool   `flagUsage:"enable prometheus metrics endpoint"`

	// logger config
	Release bool `flagUsage:"release level of logs"`
	Silent  bool `flagUsage:"do not print logs"`

	// show version and exit
	Version bool `flagUsage:"show version and exit"`
}

// Load loads config from flag & environment variables
func (c *Config) Load() error {
	cl := multiconfig.MultiLoader(
		&multiconfig.TagLoader{},
		&multiconfig.EnvironmentLoader{
			Prefix:    "DIRCC",
			CamelCase: true,
		},
		&multiconfig.FlagLoader{
			CamelCase: true,
			EnvPrefix: "DIRCC",
		},
	)
	if os.Getpid() == 1 {
		c.Release = true
	}
	return cl.Load(c)
}
