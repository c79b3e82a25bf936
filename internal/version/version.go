// Package version exposes build-time metadata stamped into the binary via ldflags.
//
// The stamping values are produced by `buildinfo ldflags`:
//
//	go build -ldflags "$(buildinfo ldflags --release 0.1.0)" .
package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	semver "github.com/blang/semver/v4"
)

// PackagePath is the import path targeted by -X assignments.
const PackagePath = "github.com/launchbynttdata/build-info/internal/version"

// Build-time variables. An empty commit value means the build had no
// source-control metadata available.
var (
	Major          = "0"
	Minor          = "1"
	Patch          = "0"
	CommitDescribe = ""
	CommitDate     = ""
)

// ErrMalformed is wrapped by every error returned for an unparseable version component.
var ErrMalformed = errors.New("malformed version component")

// Inputs holds the raw build-time strings a Version is constructed from.
type Inputs struct {
	Major          string
	Minor          string
	Patch          string
	CommitDescribe string
	CommitDate     string
}

// BuildInputs returns the values currently stamped into the binary.
func BuildInputs() Inputs {
	return Inputs{
		Major:          Major,
		Minor:          Minor,
		Patch:          Patch,
		CommitDescribe: CommitDescribe,
		CommitDate:     CommitDate,
	}
}

// Version is an immutable build version record.
type Version struct {
	major          uint8
	minor          uint8
	patch          uint16
	hostCompiler   *string
	commitDescribe *string
	commitDate     *string
}

// Option customises a Version built with New.
type Option func(*Version)

// WithChannel sets the host compiler channel.
func WithChannel(channel string) Option {
	return func(v *Version) { v.hostCompiler = &channel }
}

// WithCommitDescribe sets the commit descriptor.
func WithCommitDescribe(describe string) Option {
	return func(v *Version) { v.commitDescribe = &describe }
}

// WithCommitDate sets the last commit date.
func WithCommitDate(date string) Option {
	return func(v *Version) { v.commitDate = &date }
}

// New builds a Version from already parsed numbers.
func New(major, minor uint8, patch uint16, opts ...Option) Version {
	v := Version{major: major, minor: minor, patch: patch}
	for _, opt := range opts {
		opt(&v)
	}
	return v
}

// Parse builds a Version from raw inputs, resolving the channel through lookup.
func Parse(in Inputs, lookup LookupFunc) (Version, error) {
	major, err := parseComponent("major", in.Major, 8)
	if err != nil {
		return Version{}, err
	}
	minor, err := parseComponent("minor", in.Minor, 8)
	if err != nil {
		return Version{}, err
	}
	patch, err := parseComponent("patch", in.Patch, 16)
	if err != nil {
		return Version{}, err
	}

	opts := []Option{WithChannel(Channel(lookup))}
	if in.CommitDescribe != "" {
		opts = append(opts, WithCommitDescribe(in.CommitDescribe))
	}
	if in.CommitDate != "" {
		opts = append(opts, WithCommitDate(in.CommitDate))
	}

	return New(uint8(major), uint8(minor), uint16(patch), opts...), nil
}

// Current parses the stamped build inputs. It panics when they are malformed,
// since that can only come from a broken build.
func Current(lookup LookupFunc) Version {
	v, err := Parse(BuildInputs(), lookup)
	if err != nil {
		panic(err)
	}
	return v
}

func parseComponent(name, raw string, bits int) (uint64, error) {
	n, err := strconv.ParseUint(raw, 10, bits)
	if err != nil {
		return 0, fmt.Errorf("version %s: %w: %q is not a %d-bit unsigned integer: %w", name, ErrMalformed, raw, bits, err)
	}
	return n, nil
}

// Major returns the major version number.
func (v Version) Major() uint8 { return v.major }

// Minor returns the minor version number.
func (v Version) Minor() uint8 { return v.minor }

// Patch returns the patch version number.
func (v Version) Patch() uint16 { return v.patch }

// HostCompiler returns the release channel the version was built for.
func (v Version) HostCompiler() (string, bool) { return optional(v.hostCompiler) }

// CommitDescribe returns the raw source-control descriptor.
func (v Version) CommitDescribe() (string, bool) { return optional(v.commitDescribe) }

// CommitDate returns the raw date of the last commit.
func (v Version) CommitDate() (string, bool) { return optional(v.commitDate) }

func optional(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	return *s, true
}

// Semver returns the numeric part as a semver.Version.
func (v Version) Semver() semver.Version {
	return semver.Version{Major: uint64(v.major), Minor: uint64(v.minor), Patch: uint64(v.patch)}
}

// Short renders "major.minor.patch".
func (v Version) Short() string {
	return v.Semver().String()
}

// Long renders Short followed by the commit descriptor and date when a
// descriptor is known. An absent date still leaves its separating space.
func (v Version) Long() string {
	describe, ok := v.CommitDescribe()
	if !ok {
		return v.Short()
	}
	date, _ := v.CommitDate()
	return v.Short() + " (" + strings.TrimSpace(describe) + " " + strings.TrimSpace(date) + ")"
}

// String implements fmt.Stringer using the long form.
func (v Version) String() string {
	return v.Long()
}
