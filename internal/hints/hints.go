// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"
)

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in ~/.config/reportpdf/.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	// Find a user config path (contains .config/reportpdf) to suggest
	for _, p := range searchedPaths {
		if strings.Contains(filepathSlash(p), ".config/reportpdf") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForPageSettings lists the accepted page values.
func ForPageSettings() string {
	return format("sizes: letter, a4, legal; orientations: portrait, landscape; margin: 0.25-3.0 inches")
}

// ForCredentials returns hints when the simulator has no AWS credentials.
// Nothing is suggested when the environment already carries a key pair.
func ForCredentials() string {
	if os.Getenv("AWS_ACCESS_KEY_ID") != "" && os.Getenv("AWS_SECRET_ACCESS_KEY") != "" {
		return ""
	}
	return formatHints([]string{
		"POST /aws/config with accessKeyId, secretAccessKey and region",
		"or export AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY",
	})
}

// ForSimulatorBuild returns hints when the simulator binary cannot be built.
func ForSimulatorBuild(dir string) string {
	return format("check that " + dir + " holds the simulator module and go is on PATH")
}

// ForGeneratorKey returns a hint naming the variable holding the API key.
func ForGeneratorKey(envVar string) string {
	if envVar == "" || os.Getenv(envVar) != "" {
		return ""
	}
	return format("set " + envVar + " or submit report text directly")
}

func filepathSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
