package version

import (
	"fmt"
	"strconv"
	"time"
)

// Set via ldflags at build time, e.g.
//
//	-X github.com/ziadkadry99/naflume/internal/version.Version=1.4.0
//	-X github.com/ziadkadry99/naflume/internal/version.BuildTime=2025-01-31T10:00:00Z
//	-X github.com/ziadkadry99/naflume/internal/version.BuildHash=3f2a9c1
var (
	Version   = "dev"
	BuildTime = ""
	BuildHash = ""
)

// started stands in for the build time of binaries built without ldflags,
// so every run of a dev binary gets its own cache generation.
var started = time.Now().UTC()

// Info is the build descriptor served at /version.json and injected into
// the application shell.
type Info struct {
	Version   string `json:"version"`
	BuildTime string `json:"buildTime"`
	BuildHash string `json:"buildHash"`
	CacheBust int64  `json:"cacheBust"`
}

// Current returns the descriptor of the running binary.
func Current() Info {
	return New(Version, BuildTime, BuildHash)
}

// New builds an Info from raw ldflag values. An empty or unparsable build
// time falls back to the process start time.
func New(ver, buildTime, buildHash string) Info {
	ts, err := time.Parse(time.RFC3339, buildTime)
	if err != nil {
		ts = started
	}
	ts = ts.UTC()
	if buildHash == "" {
		buildHash = strconv.FormatInt(ts.Unix(), 36)
	}
	return Info{
		Version:   ver,
		BuildTime: ts.Format(time.RFC3339),
		BuildHash: buildHash,
		CacheBust: ts.UnixMilli(),
	}
}

// CacheName returns the cache bucket name for this build. Two builds never
// share a bucket name.
func (i Info) CacheName(prefix string) string {
	return fmt.Sprintf("%s-v%d", prefix, i.CacheBust)
}

// String is the human-readable form printed by `naflume version`.
func (i Info) String() string {
	return fmt.Sprintf("%s (built %s, %s)", i.Version, i.BuildTime, i.BuildHash)
}
