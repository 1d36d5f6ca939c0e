package shell

import (
	"testing"

	"github.com/dmora/procio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeEnv(key string) string {
	if key == "WINDIR" {
		return `C:\Windows`
	}
	return ""
}

func TestNewTable(t *testing.T) {
	tbl := NewTable(fakeEnv)

	tests := []struct {
		v    Variant
		want Descriptor
	}{
		{PowerShell64, Descriptor{Path: `C:\Windows/System32/WindowsPowerShell/v1.0/powershell.exe`, Flag: "-Command"}},
		{PowerShell32, Descriptor{Path: `C:\Windows/SysWOW64/WindowsPowerShell/v1.0/powershell.exe`, Flag: "-Command"}},
		{Cmd, Descriptor{Path: `C:\Windows/system32/cmd.exe`, Flag: "/C"}},
		{Sh, Descriptor{Path: "/bin/sh", Flag: "-c", SingleString: true}},
		{Bash, Descriptor{Path: "/bin/bash", Flag: "-c", SingleString: true}},
	}
	for _, tt := range tests {
		t.Run(tt.v.String(), func(t *testing.T) {
			got, ok := tbl.Lookup(tt.v)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := tbl.Lookup(Variant(99))
	assert.False(t, ok)
}

func TestCompose(t *testing.T) {
	tbl := NewTable(fakeEnv)

	tests := []struct {
		name    string
		v       Variant
		command string
		args    []string
		want    []string
	}{
		{name: "sh joins", v: Sh, command: "echo", args: []string{"a", "b c"}, want: []string{"-c", "echo a b c"}},
		{name: "bash no args", v: Bash, command: "ls", want: []string{"-c", "ls"}},
		{name: "sh single quotes only", v: Sh, command: "echo", args: []string{"'x'", "'y'"}, want: []string{"-c", "echo 'x' 'y'"}},
		{name: "sh double quotes only", v: Sh, command: "echo", args: []string{`"x"`}, want: []string{"-c", `echo "x"`}},
		{name: "cmd discrete", v: Cmd, command: "dir", args: []string{"/B", `it's "x"`}, want: []string{"/C", "dir", "/B", `it's "x"`}},
		{name: "powershell discrete", v: PowerShell64, command: "Get-Date", want: []string{"-Command", "Get-Date"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tbl.Compose(tt.v, tt.command, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompose_MixedQuotes(t *testing.T) {
	for _, v := range []Variant{Sh, Bash} {
		t.Run(v.String(), func(t *testing.T) {
			_, err := NewTable(fakeEnv).Compose(v, "echo", []string{"it's", `"quoted"`})
			assert.ErrorIs(t, err, ErrMixedQuotes)
			assert.ErrorIs(t, err, procio.ErrValidation)

			_, err = NewTable(fakeEnv).Compose(v, "echo", []string{`it's "both"`})
			assert.ErrorIs(t, err, ErrMixedQuotes, "both quotes in one argument")
		})
	}
}

func TestCompose_UnknownVariant(t *testing.T) {
	_, err := NewTable(fakeEnv).Compose(Variant(0), "x", nil)
	assert.ErrorIs(t, err, ErrUnknownVariant)
	assert.ErrorIs(t, err, procio.ErrValidation)
}

func TestExecute_MixedQuotesStartsNothing(t *testing.T) {
	var called bool
	h := &procio.TextFuncs{Initialized: func(procio.TextHandle) { called = true }}

	e, err := Execute(t.Context(), Sh, "echo", []string{"'", `"`}, h)
	assert.ErrorIs(t, err, ErrMixedQuotes)
	assert.Nil(t, e)
	assert.False(t, called)
}

func TestParseVariant(t *testing.T) {
	for _, v := range Variants() {
		got, err := ParseVariant(v.String())
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}

	got, err := ParseVariant(" PowerShell ")
	require.NoError(t, err)
	assert.Equal(t, PowerShell64, got)

	_, err = ParseVariant("zsh")
	assert.ErrorIs(t, err, ErrUnknownVariant)
	assert.Equal(t, "Variant(42)", Variant(42).String())
}

func TestDefault_IsStable(t *testing.T) {
	assert.Same(t, Default(), Default())
	_, ok := Default().Lookup(Platform())
	assert.True(t, ok)
}
