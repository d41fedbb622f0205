package version

import (
	"embed"
	"io"
	"runtime/debug"
	"strings"
)

//go:embed version.*
var versions embed.FS

// Version is the build version stamped by go generate, falling back to
// module build info
var Version string = "unable to get version"

func init() {
	f, err := versions.Open("version.txt")
	if err != nil {
		// no generated version file, assume installed by go install
		inf, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		Version = inf.Main.Version
		return
	}
	s, err := io.ReadAll(f)
	if err != nil {
		return
	}
	Version = strings.TrimSpace(string(s))
}
