package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvOr(t *testing.T) {
	t.Setenv("ARENA_TEST_INT", "7")
	t.Setenv("ARENA_TEST_DURATION", "2s")
	t.Setenv("ARENA_TEST_BAD", "seven")

	v, err := EnvOr("TEST_INT", 1)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	d, err := EnvOr("TEST_DURATION", time.Second)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, d)
	s, err := EnvOr("TEST_MISSING", "default")
	require.NoError(t, err)
	assert.Equal(t, "default", s)
	_, err = EnvOr("TEST_BAD", 1)
	assert.Error(t, err)
}

func TestFromEnvAndFlags(t *testing.T) {
	t.Setenv("ARENA_POPULATION", "6")
	t.Setenv("ARENA_MOVE_DELAY", "0s")
	t.Setenv("ARENA_PPROF", "true")
	s, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 6, s.PopulationSize)
	assert.Equal(t, time.Duration(0), s.MoveDelay)
	assert.True(t, s.Pprof)
	assert.Equal(t, Defaults().Addr, s.Addr)

	// Flags override the environment.
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	s.RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"-population=3", "-db="}))
	assert.Equal(t, 3, s.PopulationSize)
	assert.Empty(t, s.DBPath)
	assert.True(t, s.Pprof)

	config := s.ArenaConfig()
	assert.Equal(t, 3, config.PopulationSize)
	assert.Equal(t, s.PlayerConfig, config.PlayerConfig)

	t.Setenv("ARENA_WORKERS", "many")
	_, err = FromEnv()
	assert.ErrorContains(t, err, "ARENA_WORKERS")
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("ARENA_TEST_DOTENV=from_file\n"), 0o644))
	t.Setenv("ARENA_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("ARENA_TEST_DOTENV"))

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), path))
	value, err := EnvOr("TEST_DOTENV", "")
	require.NoError(t, err)
	assert.Equal(t, "from_file", value)
}
