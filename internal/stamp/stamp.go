// Package stamp collects build-time version inputs and renders them as
// linker -X assignments for `go build -ldflags`.
package stamp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	semver "github.com/blang/semver/v4"

	"github.com/launchbynttdata/build-info/internal/vcs"
	"github.com/launchbynttdata/build-info/internal/version"
)

// ErrUnquotable reports a value the go tool's flag splitter cannot carry.
var ErrUnquotable = errors.New("value contains both single and double quotes")

// ParseRelease converts a "major.minor.patch" release (optionally prefixed
// with "v") into version inputs. Pre-release and build suffixes are rejected.
func ParseRelease(release string) (version.Inputs, error) {
	trimmed := strings.TrimSpace(release)
	if trimmed == "" {
		return version.Inputs{}, fmt.Errorf("release is empty")
	}

	sv, err := semver.ParseTolerant(trimmed)
	if err != nil {
		return version.Inputs{}, fmt.Errorf("parsing release %q: %w", release, err)
	}
	if len(sv.Pre) > 0 || len(sv.Build) > 0 {
		return version.Inputs{}, fmt.Errorf("release %q: only major.minor.patch is supported", release)
	}

	in := version.Inputs{
		Major: strconv.FormatUint(sv.Major, 10),
		Minor: strconv.FormatUint(sv.Minor, 10),
		Patch: strconv.FormatUint(sv.Patch, 10),
	}
	if _, err := version.Parse(in, nil); err != nil {
		return version.Inputs{}, fmt.Errorf("release %q: %w", release, err)
	}
	return in, nil
}

// Collect combines the release numbers with whatever commit metadata src can
// provide. A nil src stamps no commit metadata.
func Collect(ctx context.Context, release string, src vcs.Source) (version.Inputs, error) {
	in, err := ParseRelease(release)
	if err != nil {
		return version.Inputs{}, err
	}
	if src == nil {
		return in, nil
	}
	if describe, ok := src.Describe(ctx); ok {
		in.CommitDescribe = strings.TrimSpace(describe)
	}
	if date, ok := src.LastCommitDate(ctx); ok {
		in.CommitDate = strings.TrimSpace(date)
	}
	return in, nil
}

// Assignments returns one "pkg.Var=value" entry per stamped variable.
// Empty commit values are skipped so the variables keep their absent default.
func Assignments(pkg string, in version.Inputs) []string {
	pkg = strings.TrimSpace(pkg)
	if pkg == "" {
		pkg = version.PackagePath
	}

	pairs := []struct {
		name  string
		value string
	}{
		{"Major", in.Major},
		{"Minor", in.Minor},
		{"Patch", in.Patch},
		{"CommitDescribe", strings.TrimSpace(in.CommitDescribe)},
		{"CommitDate", strings.TrimSpace(in.CommitDate)},
	}

	out := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p.value == "" {
			continue
		}
		out = append(out, pkg+"."+p.name+"="+p.value)
	}
	return out
}

// LDFlags renders Assignments as a single -ldflags value.
func LDFlags(pkg string, in version.Inputs) (string, error) {
	assignments := Assignments(pkg, in)
	parts := make([]string, 0, 2*len(assignments))
	for _, a := range assignments {
		quoted, err := quote(a)
		if err != nil {
			return "", fmt.Errorf("rendering %s: %w", a, err)
		}
		parts = append(parts, "-X", quoted)
	}
	return strings.Join(parts, " "), nil
}

// quote wraps values for the go tool's flag splitter, which understands
// single and double quotes but no escapes.
func quote(s string) (string, error) {
	if !strings.ContainsAny(s, " \t\n\r'\"") {
		return s, nil
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'", nil
	}
	if strings.Contains(s, `"`) {
		return "", ErrUnquotable
	}
	return `"` + s + `"`, nil
}
