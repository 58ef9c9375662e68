package version

// Version is the version of the tradeenv binary. It is set at build time:
// -ldflags "-X github.com/neotheprogramist/ai-playground/internal/version.Version=1.2.3"
// "main" marks a development build.
var Version = "v0.3.0"

// GetVersion returns the binary version.
func GetVersion() string {
	return Version
}
