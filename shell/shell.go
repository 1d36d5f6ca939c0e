// Package shell runs commands through a system shell on top of procio.
//
// A [Table] maps each [Variant] to the shell executable and the flag that
// introduces a command string. [Compose] builds the argument vector for a
// command; the Execute and StartWithArguments families launch the shell
// with procio.Start.
//
// sh and bash receive the command and its arguments joined into a single
// string, which the shell then re-parses. Arguments are not quoted or
// escaped; mixing single and double quotes across arguments is rejected
// with ErrMixedQuotes because the result cannot be disambiguated.
package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/dmora/procio"
)

// Sentinel errors, returned wrapped in a *procio.ValidationError.
var (
	ErrMixedQuotes    = errors.New("shell: single and double quotes mixed across arguments")
	ErrUnknownVariant = errors.New("shell: unknown variant")
)

// Variant selects a system shell.
type Variant int

const (
	// PowerShell64 is 64-bit Windows PowerShell.
	PowerShell64 Variant = iota + 1
	// PowerShell32 is 32-bit Windows PowerShell.
	PowerShell32
	// Cmd is the Windows command interpreter.
	Cmd
	// Sh is the POSIX shell at /bin/sh.
	Sh
	// Bash is /bin/bash.
	Bash
)

var variantNames = map[Variant]string{
	PowerShell64: "powershell64",
	PowerShell32: "powershell32",
	Cmd:          "cmd",
	Sh:           "sh",
	Bash:         "bash",
}

// String returns the name accepted by ParseVariant.
func (v Variant) String() string {
	if name, ok := variantNames[v]; ok {
		return name
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

// ParseVariant parses a variant name, case-insensitively. "powershell" is
// accepted for PowerShell64.
func ParseVariant(s string) (Variant, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "powershell" {
		return PowerShell64, nil
	}
	for v, n := range variantNames {
		if n == name {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownVariant, s)
}

// Variants returns every variant in declaration order.
func Variants() []Variant {
	return []Variant{PowerShell64, PowerShell32, Cmd, Sh, Bash}
}

// Platform returns the default variant for the running OS: Cmd on Windows,
// Sh elsewhere.
func Platform() Variant {
	if runtime.GOOS == "windows" {
		return Cmd
	}
	return Sh
}

// Descriptor describes how to invoke one shell.
type Descriptor struct {
	// Path is the shell executable.
	Path string
	// Flag introduces the command string, e.g. "-c" or "/C".
	Flag string
	// SingleString reports whether the command and its arguments are
	// passed as one string after Flag.
	SingleString bool
}

// Table is an immutable mapping from variant to descriptor.
type Table struct {
	shells map[Variant]Descriptor
}

// NewTable resolves shell locations using getenv. The Windows shells live
// under %WINDIR%.
func NewTable(getenv func(string) string) *Table {
	windir := getenv("WINDIR")
	return &Table{shells: map[Variant]Descriptor{
		PowerShell64: {Path: windir + "/System32/WindowsPowerShell/v1.0/powershell.exe", Flag: "-Command"},
		PowerShell32: {Path: windir + "/SysWOW64/WindowsPowerShell/v1.0/powershell.exe", Flag: "-Command"},
		Cmd:          {Path: windir + "/system32/cmd.exe", Flag: "/C"},
		Sh:           {Path: "/bin/sh", Flag: "-c", SingleString: true},
		Bash:         {Path: "/bin/bash", Flag: "-c", SingleString: true},
	}}
}

// Default returns the table resolved once from the process environment.
var Default = sync.OnceValue(func() *Table {
	return NewTable(os.Getenv)
})

// Lookup returns the descriptor for v.
func (t *Table) Lookup(v Variant) (Descriptor, bool) {
	d, ok := t.shells[v]
	return d, ok
}

func (t *Table) descriptor(v Variant) (Descriptor, error) {
	d, ok := t.Lookup(v)
	if !ok {
		return Descriptor{}, &procio.ValidationError{
			Param: "shell",
			Err:   fmt.Errorf("%w: %s", ErrUnknownVariant, v),
		}
	}
	return d, nil
}

// Compose returns the argument vector that makes shell v run command with
// args. The shell executable itself is not included.
func (t *Table) Compose(v Variant, command string, args []string) ([]string, error) {
	d, err := t.descriptor(v)
	if err != nil {
		return nil, err
	}
	if !d.SingleString {
		return append([]string{d.Flag, command}, args...), nil
	}
	if mixedQuotes(args) {
		return nil, &procio.ValidationError{Param: "args", Err: ErrMixedQuotes}
	}
	return []string{d.Flag, strings.Join(append([]string{command}, args...), " ")}, nil
}

// mixedQuotes reports whether some argument holds a single quote and some
// argument (possibly the same) holds a double quote.
func mixedQuotes(args []string) bool {
	single := slices.ContainsFunc(args, func(a string) bool { return strings.Contains(a, "'") })
	double := slices.ContainsFunc(args, func(a string) bool { return strings.Contains(a, `"`) })
	return single && double
}

// Execute runs command with args through shell v in the shell's own
// directory.
func (t *Table) Execute(ctx context.Context, v Variant, command string, args []string, h procio.Handler, opts ...procio.Option) (*procio.Execution, error) {
	return t.ExecuteIn(ctx, v, "", command, args, h, opts...)
}

// ExecuteIn runs command with args through shell v in dir. An empty dir
// means the shell's own directory.
func (t *Table) ExecuteIn(ctx context.Context, v Variant, dir, command string, args []string, h procio.Handler, opts ...procio.Option) (*procio.Execution, error) {
	argv, err := t.Compose(v, command, args)
	if err != nil {
		return nil, err
	}
	return t.StartWithArgumentsIn(ctx, v, dir, argv, h, opts...)
}

// StartWithArguments launches shell v with a raw argument vector in the
// shell's own directory. No flag is added and nothing is joined.
func (t *Table) StartWithArguments(ctx context.Context, v Variant, argv []string, h procio.Handler, opts ...procio.Option) (*procio.Execution, error) {
	return t.StartWithArgumentsIn(ctx, v, "", argv, h, opts...)
}

// StartWithArgumentsIn launches shell v with a raw argument vector in dir.
// An empty dir means the shell's own directory.
func (t *Table) StartWithArgumentsIn(ctx context.Context, v Variant, dir string, argv []string, h procio.Handler, opts ...procio.Option) (*procio.Execution, error) {
	d, err := t.descriptor(v)
	if err != nil {
		return nil, err
	}
	cmd := procio.Command{Path: d.Path, Dir: dir, Args: argv}
	if dir == "" {
		return procio.StartInExecutableDir(ctx, cmd, h, opts...)
	}
	return procio.Start(ctx, cmd, h, opts...)
}

// Compose calls Default().Compose.
func Compose(v Variant, command string, args []string) ([]string, error) {
	return Default().Compose(v, command, args)
}

// Execute calls Default().Execute.
func Execute(ctx context.Context, v Variant, command string, args []string, h procio.Handler, opts ...procio.Option) (*procio.Execution, error) {
	return Default().Execute(ctx, v, command, args, h, opts...)
}

// ExecuteIn calls Default().ExecuteIn.
func ExecuteIn(ctx context.Context, v Variant, dir, command string, args []string, h procio.Handler, opts ...procio.Option) (*procio.Execution, error) {
	return Default().ExecuteIn(ctx, v, dir, command, args, h, opts...)
}

// StartWithArguments calls Default().StartWithArguments.
func StartWithArguments(ctx context.Context, v Variant, argv []string, h procio.Handler, opts ...procio.Option) (*procio.Execution, error) {
	return Default().StartWithArguments(ctx, v, argv, h, opts...)
}

// StartWithArgumentsIn calls Default().StartWithArgumentsIn.
func StartWithArgumentsIn(ctx context.Context, v Variant, dir string, argv []string, h procio.Handler, opts ...procio.Option) (*procio.Execution, error) {
	return Default().StartWithArgumentsIn(ctx, v, dir, argv, h, opts...)
}
