// Package version exposes build metadata, overridden at link time via
// -ldflags "-X yt-dl-archiver/internal/version.Version=v1.2.3".
package version

var Version = "dev"
