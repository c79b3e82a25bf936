// Package vcs retrieves best-effort source-control metadata for a build.
package vcs

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Source describes the source-control lookups a build needs. Both lookups
// report false when the metadata is unavailable; they never fail.
type Source interface {
	// Describe returns the human-readable descriptor of the checked-out revision.
	Describe(ctx context.Context) (string, bool)

	// LastCommitDate returns the short date of the most recent commit.
	LastCommitDate(ctx context.Context) (string, bool)
}

const defaultBinary = "git"

var (
	describeArgs = []string{"describe", "--dirty=dev"}
	dateArgs     = []string{"log", "-1", "--date=short", "--pretty=format:%cd"}
)

// Config controls how the git CLI is invoked.
type Config struct {
	// Dir is the working directory for git; empty means the current directory.
	Dir string
	// Binary is the git executable; empty means "git" from PATH.
	Binary string
	Logger *zap.Logger
}

// Git implements Source by shelling out to the git CLI.
type Git struct {
	dir    string
	binary string
	logger *zap.Logger
}

// NewGit creates a Git source from the provided configuration.
func NewGit(cfg Config) *Git {
	binary := strings.TrimSpace(cfg.Binary)
	if binary == "" {
		binary = defaultBinary
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Git{dir: cfg.Dir, binary: binary, logger: logger}
}

// Describe runs `git describe --dirty=dev`.
func (g *Git) Describe(ctx context.Context) (string, bool) {
	return g.output(ctx, describeArgs)
}

// LastCommitDate runs `git log -1 --date=short --pretty=format:%cd`.
func (g *Git) LastCommitDate(ctx context.Context) (string, bool) {
	return g.output(ctx, dateArgs)
}

func (g *Git) output(ctx context.Context, args []string) (string, bool) {
	if ctx == nil {
		ctx = context.Background()
	}

	log := g.logger.With(zap.String("binary", g.binary), zap.Strings("args", args), zap.String("dir", g.dir))

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, g.binary, args...) //nolint:gosec // fixed argument lists
	cmd.Dir = g.dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		log.Debug("vcs: metadata unavailable", zap.Error(err), zap.String("stderr", strings.TrimSpace(stderr.String())))
		return "", false
	}

	out := stdout.Bytes()
	if !utf8.Valid(out) {
		log.Debug("vcs: output is not valid UTF-8", zap.Int("bytes", len(out)))
		return "", false
	}

	log.Debug("vcs: metadata retrieved", zap.String("output", strings.TrimSpace(string(out))))
	return string(out), true
}
