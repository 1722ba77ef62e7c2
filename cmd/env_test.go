package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagCmd() (*cobra.Command, *int64, *string) {
	var s int64
	var lvl string
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().Int64Var(&s, "seed", 42, "")
	cmd.Flags().StringVar(&lvl, "trace-level", "none", "")
	return cmd, &s, &lvl
}

func TestEnvVarName(t *testing.T) {
	assert.Equal(t, "SCHEDSIM_SEED", envVarName("seed"))
	assert.Equal(t, "SCHEDSIM_TRACE_LEVEL", envVarName("trace-level"))
}

func TestApplyEnvDefaults_UnsetFlagsTakeEnv(t *testing.T) {
	// GIVEN SCHEDSIM_SEED in the environment and no --seed flag
	t.Setenv("SCHEDSIM_SEED", "7")
	cmd, s, lvl := newFlagCmd()
	require.NoError(t, cmd.ParseFlags(nil))

	// WHEN env defaults are applied
	require.NoError(t, applyEnvDefaults(cmd))

	// THEN the flag takes the environment value; others keep their default
	assert.Equal(t, int64(7), *s)
	assert.Equal(t, "none", *lvl)
}

func TestApplyEnvDefaults_ExplicitFlagWins(t *testing.T) {
	t.Setenv("SCHEDSIM_SEED", "7")
	cmd, s, _ := newFlagCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--seed", "99"}))

	require.NoError(t, applyEnvDefaults(cmd))
	assert.Equal(t, int64(99), *s)
}

func TestApplyEnvDefaults_InvalidValue_ReturnsError(t *testing.T) {
	t.Setenv("SCHEDSIM_SEED", "not-a-number")
	cmd, _, _ := newFlagCmd()
	require.NoError(t, cmd.ParseFlags(nil))

	err := applyEnvDefaults(cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SCHEDSIM_SEED")
}

func TestLoadEnvFile_PopulatesEnvironment(t *testing.T) {
	// GIVEN a .env file
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SCHEDSIM_TRACE_LEVEL=all\n"), 0644))
	t.Setenv("SCHEDSIM_TRACE_LEVEL", "")
	os.Unsetenv("SCHEDSIM_TRACE_LEVEL")

	// WHEN loaded and applied
	require.NoError(t, loadEnvFile(path))
	cmd, _, lvl := newFlagCmd()
	require.NoError(t, cmd.ParseFlags(nil))
	require.NoError(t, applyEnvDefaults(cmd))

	// THEN the file value reaches the flag
	assert.Equal(t, "all", *lvl)
}

func TestLoadEnvFile_MissingFile_Ignored(t *testing.T) {
	assert.NoError(t, loadEnvFile(filepath.Join(t.TempDir(), "absent.env")))
	assert.NoError(t, loadEnvFile(""))
}
