package rly

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Runner runs one relayer command and returns its standard output.
// args excludes the binary name.
type Runner interface {
	Run(ctx context.Context, args []string) ([]byte, error)
}

// CommandError is returned when a relayer command exits unsuccessfully.
type CommandError struct {
	Args   []string
	Err    error
	Stderr string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("rly %s: %v", strings.Join(redact(e.Args), " "), e.Err)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }

// AlreadyExists reports whether the command failed because the object it creates is already there.
func (e *CommandError) AlreadyExists() bool {
	return strings.Contains(e.Stderr, "already exists") || strings.Contains(e.Err.Error(), "already exists")
}

// ExecRunner runs the relayer binary as a child process.
type ExecRunner struct {
	// Binary is the relayer executable, "rly" when empty.
	Binary string

	// Prefix is prepended to the command line, e.g. docker exec <container>.
	Prefix []string

	// Env is appended to the current process environment.
	Env []string
}

func (r ExecRunner) Run(ctx context.Context, args []string) ([]byte, error) {
	bin := r.Binary
	if bin == "" {
		bin = DefaultBinary
	}

	argv := append(append(append([]string(nil), r.Prefix...), bin), args...)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), &CommandError{
			Args:   args,
			Err:    err,
			Stderr: stderr.String(),
		}
	}
	return stdout.Bytes(), nil
}

// redact hides the mnemonic passed to keys restore.
func redact(args []string) []string {
	if len(args) < 5 || args[0] != "keys" || args[1] != "restore" {
		return args
	}
	out := append([]string(nil), args...)
	out[4] = "<redacted>"
	return out
}
