package config

import (
	"testing"

	"github.com/dmora/procio"
	"github.com/dmora/procio/shell"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PROCIO_BUFFER_SIZE", "64")
	t.Setenv("PROCIO_MAX_LINE_SIZE", "128")
	t.Setenv("PROCIO_ENCODING", "Windows-1252")
	t.Setenv("PROCIO_SHELL", "bash")
	t.Setenv("PROCIO_LOG_LEVEL", "debug")
	t.Setenv("PROCIO_LOG_DEV", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.BufferSize)
	assert.Equal(t, 128, cfg.MaxLineSize)
	assert.Equal(t, "Windows-1252", cfg.Encoding)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.LogDev)

	v, err := cfg.ShellVariant()
	require.NoError(t, err)
	assert.Equal(t, shell.Bash, v)

	o := procio.ResolveOptions(cfg.Options(nil)...)
	assert.Equal(t, 64, o.BufferSize)
	assert.Equal(t, 128, o.MaxLineSize)
	assert.Equal(t, charmap.Windows1252, o.Encoding)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"PROCIO_BUFFER_SIZE", "lots"},
		{"PROCIO_ENCODING", "ebcdic"},
		{"PROCIO_SHELL", "zsh"},
		{"PROCIO_MAX_LINE_SIZE", "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
			assert.Equal(t, Default(), LoadOrDefault())
		})
	}
}

func TestParseEncoding(t *testing.T) {
	for _, name := range []string{"", "utf-8", "UTF8"} {
		enc, err := ParseEncoding(name)
		require.NoError(t, err, name)
		assert.Nil(t, enc, name)
	}
	for _, name := range []string{"latin1", "iso-8859-1", "cp850", "utf-16le", "UTF-16BE"} {
		enc, err := ParseEncoding(name)
		require.NoError(t, err, name)
		assert.NotNil(t, enc, name)
	}
}

func TestOptions_WithLogger(t *testing.T) {
	cfg := Default()
	l, err := cfg.Logger()
	require.NoError(t, err)

	o := procio.ResolveOptions(cfg.Options(l)...)
	assert.Same(t, l, o.Logger)
	assert.Nil(t, o.Encoding)
	assert.Equal(t, procio.DefaultBufferSize, o.BufferSize)
}
