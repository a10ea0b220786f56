// Package decrypt hands ciphertext returned by a node to an external decryptor program.
//
// The decryptor is invoked as `<path> <key-file>`, reads the ciphertext on stdin and
// writes the plaintext to stdout. Anything that can play that role implements Runner,
// which lets callers substitute a fake in tests.
package decrypt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultPath is the decryptor looked up when none is configured.
const DefaultPath = "./decryptor"

// Runner runs a decryption step once: stdin in, stdout out.
type Runner interface {
	Run(ctx context.Context, stdin []byte) ([]byte, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, stdin []byte) ([]byte, error)

func (f RunnerFunc) Run(ctx context.Context, stdin []byte) ([]byte, error) { return f(ctx, stdin) }

// ProcessError reports a decryptor that could not be started or exited non-zero.
type ProcessError struct {
	Path     string
	ExitCode int // -1 when the process never ran
	Stderr   string
	Err      error
}

func (e *ProcessError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "decryptor %s", e.Path)
	if e.ExitCode >= 0 {
		fmt.Fprintf(&b, " exited with status %d", e.ExitCode)
	} else {
		fmt.Fprintf(&b, " failed to start: %v", e.Err)
	}
	if e.Stderr != "" {
		fmt.Fprintf(&b, ": %s", e.Stderr)
	}
	return b.String()
}

func (e *ProcessError) Unwrap() error { return e.Err }

// Command runs an executable with Args, piping stdin and capturing stdout and stderr.
type Command struct {
	Path string
	Args []string
}

func (c Command) Run(ctx context.Context, stdin []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Stdin = bytes.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		pe := &ProcessError{
			Path:     c.Path,
			ExitCode: -1,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			pe.ExitCode = exitErr.ExitCode()
		}
		return nil, pe
	}
	return stdout.Bytes(), nil
}

// Decryptor builds one decryptor run per ciphertext.
type Decryptor struct {
	// Path of the decryptor executable.
	Path string
	// NewRunner overrides how the process is built; nil means Command{Path, [keyFile]}.
	NewRunner func(path, keyFile string) Runner
	Logger    *zap.Logger
}

func New(path string, logger *zap.Logger) *Decryptor {
	if path == "" {
		path = DefaultPath
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Decryptor{Path: path, Logger: logger}
}

// Decrypt pipes ciphertext through `<Path> <keyFile>` and returns its stdout unchanged.
func (d *Decryptor) Decrypt(ctx context.Context, ciphertext, keyFile string) (string, error) {
	path := d.Path
	if path == "" {
		path = DefaultPath
	}
	newRunner := d.NewRunner
	if newRunner == nil {
		newRunner = func(path, keyFile string) Runner {
			return Command{Path: path, Args: []string{keyFile}}
		}
	}

	out, err := newRunner(path, keyFile).Run(ctx, []byte(ciphertext))
	if err != nil {
		if d.Logger != nil {
			d.Logger.Warn("decryption failed", zap.String("decryptor", path), zap.Error(err))
		}
		return "", err
	}
	return string(out), nil
}
