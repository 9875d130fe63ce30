// Package devtool implements the `dev init/test/build/clean` verbs
// : thin wrappers around the Go toolchain for operators
// hacking on the node/miner source tree alongside Nockit itself.
//
// Output from the spawned `go` subprocess is drained using the same
// output from the spawned `go` subprocess is streamed into a LogStore
// stream line-by-line instead of a *log.Logger, the same drain shape
// generalized from one process (containerd) to three short-lived ones.
package devtool

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/docxology/nockchain/pkg/errs"
	"github.com/docxology/nockchain/pkg/logstore"
	"github.com/docxology/nockchain/pkg/types"
)

// Stream is the LogStore stream dev subcommands append their output to.
const Stream = "dev"

// Tool runs `go` subcommands against a working directory, draining
// output into a LogStore stream.
type Tool struct {
	Logs *logstore.Store
	Dir  string
}

// New returns a Tool rooted at dir, appending output to logs' "dev" stream.
func New(logs *logstore.Store, dir string) *Tool {
	return &Tool{Logs: logs, Dir: dir}
}

// skeletonFiles are written by Init into a fresh project directory.
var skeletonFiles = map[string]string{
	"go.mod": "module nockit-dev\n\ngo 1.25\n",
	"main.go": `package main

func main() {}
`,
}

// Init scaffolds a minimal Go module at path, the way `cargo init`/`go
// mod init` bootstraps a tree an operator can iterate on locally.
func (t *Tool) Init(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return errs.Wrap(errs.IO, "create project directory", err)
	}
	for name, contents := range skeletonFiles {
		full := filepath.Join(path, name)
		if _, err := os.Stat(full); err == nil {
			continue // don't clobber an existing file on repeated init
		}
		if err := os.WriteFile(full, []byte(contents), 0o644); err != nil {
			return errs.Wrap(errs.IO, "write project skeleton file "+name, err)
		}
	}
	return nil
}

// Test runs `go test ./...` in t.Dir, streaming output to Stream.
func (t *Tool) Test(ctx context.Context) error {
	return t.run(ctx, "go", "test", "./...")
}

// Build runs `go build` with the requested target ("release" strips
// debug info via -ldflags, "debug" builds with default flags).
func (t *Tool) Build(ctx context.Context, target string) error {
	args := []string{"build"}
	if target == "release" {
		args = append(args, "-ldflags=-s -w")
	}
	args = append(args, "./...")
	return t.run(ctx, "go", args...)
}

// Clean runs `go clean` and removes any build output left under t.Dir/bin.
func (t *Tool) Clean(ctx context.Context) error {
	if err := t.run(ctx, "go", "clean", "./..."); err != nil {
		return err
	}
	binDir := filepath.Join(t.Dir, "bin")
	if err := os.RemoveAll(binDir); err != nil {
		return errs.Wrap(errs.IO, "remove build output", err)
	}
	return nil
}

// run spawns name+args in t.Dir, draining stdout/stderr into Stream
// line-by-line and blocking until exit.
func (t *Tool) run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = t.Dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errs.Wrap(errs.Process, "attach stdout", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return errs.Wrap(errs.Process, "attach stderr", err)
	}

	if err := cmd.Start(); err != nil {
		return errs.Wrap(errs.Process, "start "+name, err)
	}

	done := make(chan struct{}, 2)
	go t.drain(stdout, types.LevelInfo, done)
	go t.drain(stderr, types.LevelWarn, done)
	<-done
	<-done

	if err := cmd.Wait(); err != nil {
		return errs.Wrap(errs.Process, name+" "+joinArgs(args)+" failed", err)
	}
	return nil
}

func (t *Tool) drain(r io.Reader, level types.LogLevel, done chan<- struct{}) {
	defer func() { done <- struct{}{} }()

	buf := make([]byte, 4096)
	var partial []byte
	for {
		n, err := r.Read(buf)
		if n > 0 {
			partial = append(partial, buf[:n]...)
			for {
				idx := indexByte(partial, '\n')
				if idx < 0 {
					break
				}
				line := string(partial[:idx])
				partial = partial[idx+1:]
				if line != "" {
					_ = t.Logs.Append(Stream, types.LogRecord{
						Timestamp: time.Now(),
						Level:     level,
						Component: "dev",
						Message:   line,
					})
				}
			}
		}
		if err != nil {
			return
		}
	}
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

func joinArgs(args []string) string {
	out := ""
	for i, a := range args {
		if i > 0 {
			out += " "
		}
		out += a
	}
	return out
}
