package procio

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommand_CloneIsDeep(t *testing.T) {
	c := Command{Path: "/bin/x", Args: []string{"a"}, Env: map[string]string{"K": "v"}}
	d := c.Clone()
	d.Args[0] = "b"
	d.Env["K"] = "w"

	assert.Equal(t, "a", c.Args[0])
	assert.Equal(t, "v", c.Env["K"])
}

func TestCommand_InExecutableDir(t *testing.T) {
	c := Command{Path: "testdata/go-echo/main.go", Dir: "/elsewhere"}
	got := c.InExecutableDir()

	want, err := filepath.Abs("testdata/go-echo")
	require.NoError(t, err)
	assert.Equal(t, want, got.Dir)
	assert.Equal(t, "/elsewhere", c.Dir)
}

func TestValidateEnv(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{name: "nil", env: nil},
		{name: "valid", env: map[string]string{"A": "1", "B_2": ""}},
		{name: "empty key", env: map[string]string{"": "x"}, wantErr: true},
		{name: "equals in key", env: map[string]string{"A=B": "x"}, wantErr: true},
		{name: "nul in key", env: map[string]string{"A\x00": "x"}, wantErr: true},
		{name: "nul in value", env: map[string]string{"A": "x\x00y"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateEnv(tt.env)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidEnv)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMergeEnv(t *testing.T) {
	base := []string{"HOME=/root", "PATH=/bin", "ODD"}

	assert.Nil(t, mergeEnv(base, nil), "nil env inherits")
	assert.Equal(t, base, mergeEnv(base, map[string]string{}))
	assert.Equal(t,
		[]string{"HOME=/root", "ODD", "A=1", "PATH=/usr/bin"},
		mergeEnv(base, map[string]string{"PATH": "/usr/bin", "A": "1"}),
	)
}
