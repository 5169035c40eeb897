// Package version holds build-time version information.
package version

// Version is the application version. Overridden at build time with
// -ldflags "-X github.com/ndewijer/Fund-Advisor-Backend/internal/version.Version=x.y.z".
var Version = "dev"
