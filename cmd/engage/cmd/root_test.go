package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteHelp(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	os.Args = []string{"engage", "--help"}
	err := Execute()
	assert.NoError(t, err)
}

func TestSetVersion(t *testing.T) {
	SetVersion("1.2.3", "abc123", "2026-01-01")

	assert.Equal(t, "1.2.3", appVersion)
	assert.Equal(t, "abc123", appCommit)
	assert.Equal(t, "2026-01-01", appDate)
}

func TestInitConfig(t *testing.T) {
	t.Run("no config file", func(t *testing.T) {
		viper.Reset()
		cfgFile = ""
		dataDir = ""

		err := initConfig()
		assert.NoError(t, err)
	})

	t.Run("with config file", func(t *testing.T) {
		viper.Reset()

		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "cli.yaml")
		require.NoError(t, os.WriteFile(path, []byte("mode: script\n"), 0o644))

		cfgFile = path
		defer func() { cfgFile = "" }()

		err := initConfig()
		require.NoError(t, err)
		assert.Equal(t, "script", viper.GetString("mode"))
	})

	t.Run("malformed config file", func(t *testing.T) {
		viper.Reset()

		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "cli.yaml")
		require.NoError(t, os.WriteFile(path, []byte(":\n  - bad"), 0o644))

		cfgFile = path
		defer func() { cfgFile = "" }()

		err := initConfig()
		assert.Error(t, err)
	})
}
