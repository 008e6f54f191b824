// Package misc holds build stamps shared by the program.
package misc

// These are set at link time with -ldflags "-X cbe/misc.version=...".
var (
	appName = "cbe"
	version = "dev"
	gitHash = "unknown"
)

func GetAppName() string {
	return appName
}

func GetVersion() string {
	return version
}

func GetGitHash() string {
	return gitHash
}
