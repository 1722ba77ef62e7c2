package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// envPrefix namespaces environment variables that supply flag defaults.
const envPrefix = "SCHEDSIM_"

// envVarName maps a flag name to its environment variable,
// e.g. "trace-level" → "SCHEDSIM_TRACE_LEVEL".
func envVarName(flag string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// loadEnvFile loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	logrus.Debugf("loaded environment from %s", path)
	return nil
}

// applyEnvDefaults sets every flag the user did not pass explicitly from its
// SCHEDSIM_* environment variable, if present. Command-line flags win.
func applyEnvDefaults(cmd *cobra.Command) error {
	var firstErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed || firstErr != nil {
			return
		}
		v, ok := os.LookupEnv(envVarName(f.Name))
		if !ok {
			return
		}
		if err := cmd.Flags().Set(f.Name, v); err != nil {
			firstErr = fmt.Errorf("invalid %s=%q: %w", envVarName(f.Name), v, err)
		}
	})
	return firstErr
}
