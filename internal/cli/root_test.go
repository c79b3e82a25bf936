package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/launchbynttdata/build-info/internal/config"
	"github.com/launchbynttdata/build-info/internal/vcs"
	"github.com/launchbynttdata/build-info/internal/version"
)

const testPkg = "example.com/app/internal/version"

type fakeSource struct {
	describe   string
	describeOK bool
	date       string
	dateOK     bool
}

func (f fakeSource) Describe(context.Context) (string, bool) { return f.describe, f.describeOK }

func (f fakeSource) LastCommitDate(context.Context) (string, bool) { return f.date, f.dateOK }

type harness struct {
	deps    dependencies
	configs []vcs.Config
}

func newHarness(env map[string]string, in version.Inputs, src fakeSource) *harness {
	h := &harness{}
	h.deps = dependencies{
		env:    config.MapEnv(env),
		inputs: func() version.Inputs { return in },
		newSource: func(cfg vcs.Config) vcs.Source {
			h.configs = append(h.configs, cfg)
			return src
		},
	}
	return h
}

func (h *harness) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand(h.deps)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

var stamped = version.Inputs{Major: "0", Minor: "1", Patch: "0", CommitDescribe: "v0.1.0dev\n", CommitDate: "2024-02-03\n"}

func TestVersionPrintsLongForm(t *testing.T) {
	t.Parallel()

	stdout, _, err := newHarness(nil, stamped, fakeSource{}).run(t, "version")

	require.NoError(t, err)
	assert.Equal(t, "0.1.0 (v0.1.0dev 2024-02-03)\n", stdout)
}

func TestVersionKeepsSeparatorWithoutDate(t *testing.T) {
	t.Parallel()

	in := version.Inputs{Major: "0", Minor: "1", Patch: "0", CommitDescribe: "v0.1.0"}
	stdout, _, err := newHarness(nil, in, fakeSource{}).run(t, "version")

	require.NoError(t, err)
	assert.Equal(t, "0.1.0 (v0.1.0 )\n", stdout)
}

func TestVersionShort(t *testing.T) {
	t.Parallel()

	stdout, _, err := newHarness(nil, stamped, fakeSource{}).run(t, "version", "--short")

	require.NoError(t, err)
	assert.Equal(t, "0.1.0\n", stdout)
}

func TestVersionShortFromEnvironment(t *testing.T) {
	t.Parallel()

	stdout, _, err := newHarness(map[string]string{envShort: "true"}, stamped, fakeSource{}).run(t, "version")

	require.NoError(t, err)
	assert.Equal(t, "0.1.0\n", stdout)
}

func TestVersionJSONIncludesChannel(t *testing.T) {
	t.Parallel()

	env := map[string]string{version.ChannelEnv: "beta"}
	stdout, _, err := newHarness(env, stamped, fakeSource{}).run(t, "version", "--output", "json")
	require.NoError(t, err)

	var info version.Info
	require.NoError(t, json.Unmarshal([]byte(stdout), &info))
	assert.Equal(t, "beta", info.Channel)
	assert.Equal(t, "0.1.0", info.Short)
	assert.Equal(t, "v0.1.0dev", info.CommitDescribe)
	assert.Equal(t, "2024-02-03", info.CommitDate)
}

func TestVersionYAMLOmitsAbsentCommit(t *testing.T) {
	t.Parallel()

	in := version.Inputs{Major: "2", Minor: "0", Patch: "1"}
	stdout, _, err := newHarness(nil, in, fakeSource{}).run(t, "version", "-o", "YAML")
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &decoded))
	assert.Equal(t, "2.0.1", decoded["short"])
	assert.Equal(t, "2.0.1", decoded["long"])
	assert.Equal(t, version.DefaultChannel, decoded["channel"])
	assert.NotContains(t, decoded, "commit_describe")
	assert.NotContains(t, decoded, "commit_date")
}

func TestVersionTable(t *testing.T) {
	t.Parallel()

	in := version.Inputs{Major: "0", Minor: "1", Patch: "0", CommitDescribe: "v0.1.0"}
	stdout, _, err := newHarness(nil, in, fakeSource{}).run(t, "version", "--output", "table")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Commit date")
	assert.Contains(t, stdout, "v0.1.0")
	assert.Contains(t, stdout, version.DefaultChannel)
	assert.Contains(t, stdout, absentCell)
	assert.Contains(t, stdout, "╭")
}

func TestVersionRejectsShortWithStructuredOutput(t *testing.T) {
	t.Parallel()

	_, _, err := newHarness(nil, stamped, fakeSource{}).run(t, "version", "--short", "--output", "json")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--short")
}

func TestVersionRejectsUnknownOutput(t *testing.T) {
	t.Parallel()

	_, _, err := newHarness(nil, stamped, fakeSource{}).run(t, "version", "--output", "xml")

	require.EqualError(t, err, `invalid output "xml" (want text, json, yaml or table)`)
}

func TestVersionFailsOnMalformedStamp(t *testing.T) {
	t.Parallel()

	in := version.Inputs{Major: "0", Minor: "300", Patch: "0"}
	stdout, _, err := newHarness(nil, in, fakeSource{}).run(t, "version")

	require.Error(t, err)
	assert.ErrorIs(t, err, version.ErrMalformed)
	assert.Empty(t, stdout)
}

func TestVersionReadsEnvFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "build.env")
	require.NoError(t, os.WriteFile(path, []byte(envOutput+"=json\n"+version.ChannelEnv+"=stable\n"), 0o600))

	stdout, _, err := newHarness(nil, stamped, fakeSource{}).run(t, "--env-file", path, "version")
	require.NoError(t, err)

	var info version.Info
	require.NoError(t, json.Unmarshal([]byte(stdout), &info))
	assert.Equal(t, "stable", info.Channel)
}

func TestMissingEnvFileFails(t *testing.T) {
	t.Parallel()

	_, _, err := newHarness(nil, stamped, fakeSource{}).run(t, "--env-file", filepath.Join(t.TempDir(), "nope.env"), "channel")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading environment")
}

func TestRootVersionFlag(t *testing.T) {
	t.Parallel()

	stdout, _, err := newHarness(nil, stamped, fakeSource{}).run(t, "--version")

	require.NoError(t, err)
	assert.Equal(t, "buildinfo 0.1.0 (v0.1.0dev 2024-02-03)\n", stdout)
}

func TestRootVersionFlagReportsMalformedStamp(t *testing.T) {
	t.Parallel()

	in := version.Inputs{Major: "0", Minor: "300", Patch: "0"}
	stdout, _, err := newHarness(nil, in, fakeSource{}).run(t, "--version")

	require.Error(t, err)
	assert.ErrorIs(t, err, version.ErrMalformed)
	assert.Empty(t, stdout)
}

func TestRootWithoutFlagsPrintsHelp(t *testing.T) {
	t.Parallel()

	in := version.Inputs{Major: "0", Minor: "300", Patch: "0"}
	stdout, _, err := newHarness(nil, in, fakeSource{}).run(t)

	require.NoError(t, err)
	assert.Contains(t, stdout, "--version")
}

func TestChannelDefaultsToNightly(t *testing.T) {
	t.Parallel()

	stdout, _, err := newHarness(nil, stamped, fakeSource{}).run(t, "channel")

	require.NoError(t, err)
	assert.Equal(t, "nightly\n", stdout)
}

func TestChannelFromEnvironment(t *testing.T) {
	t.Parallel()

	stdout, _, err := newHarness(map[string]string{version.ChannelEnv: "beta"}, stamped, fakeSource{}).run(t, "channel")

	require.NoError(t, err)
	assert.Equal(t, "beta\n", stdout)
}

func TestDescribePrintsCommitMetadata(t *testing.T) {
	t.Parallel()

	h := newHarness(nil, stamped, fakeSource{describe: "v1.0.0-4-gabcdef0\n", describeOK: true, date: "2024-06-07", dateOK: true})
	stdout, _, err := h.run(t, "describe", "-C", "/src/repo", "--git", "/usr/bin/git")

	require.NoError(t, err)
	assert.Equal(t, "describe: v1.0.0-4-gabcdef0\ndate: 2024-06-07\n", stdout)
	require.Len(t, h.configs, 1)
	assert.Equal(t, "/src/repo", h.configs[0].Dir)
	assert.Equal(t, "/usr/bin/git", h.configs[0].Binary)
	assert.NotNil(t, h.configs[0].Logger)
}

func TestDescribeReportsUnavailableMetadata(t *testing.T) {
	t.Parallel()

	h := newHarness(map[string]string{envRepoDir: "/elsewhere"}, stamped, fakeSource{})
	stdout, _, err := h.run(t, "describe")

	require.NoError(t, err)
	assert.Equal(t, "describe: (unavailable)\ndate: (unavailable)\n", stdout)
	require.Len(t, h.configs, 1)
	assert.Equal(t, "/elsewhere", h.configs[0].Dir)
	assert.Equal(t, defaultGit, h.configs[0].Binary)
}

func TestLDFlagsRequiresRelease(t *testing.T) {
	t.Parallel()

	_, _, err := newHarness(nil, stamped, fakeSource{}).run(t, "ldflags")

	require.EqualError(t, err, "release is required (set BI_RELEASE or --release)")
}

func TestLDFlagsRejectsPrerelease(t *testing.T) {
	t.Parallel()

	_, _, err := newHarness(nil, stamped, fakeSource{}).run(t, "ldflags", "--release", "1.0.0-rc.1")

	require.Error(t, err)
}

func TestLDFlagsRendersAssignments(t *testing.T) {
	t.Parallel()

	src := fakeSource{describe: "v1.2.3dev\n", describeOK: true, date: "2024-01-31", dateOK: true}
	stdout, _, err := newHarness(nil, stamped, src).run(t, "ldflags", "--release", "v1.2.3", "--package", testPkg)

	require.NoError(t, err)
	assert.Equal(t,
		"-X "+testPkg+".Major=1 -X "+testPkg+".Minor=2 -X "+testPkg+".Patch=3 -X "+testPkg+".CommitDescribe=v1.2.3dev -X "+testPkg+".CommitDate=2024-01-31\n",
		stdout,
	)
}

func TestLDFlagsFromEnvironmentWithoutCommitMetadata(t *testing.T) {
	t.Parallel()

	env := map[string]string{envRelease: "0.4.0"}
	stdout, _, err := newHarness(env, stamped, fakeSource{}).run(t, "ldflags")

	require.NoError(t, err)
	assert.Equal(t,
		"-X "+version.PackagePath+".Major=0 -X "+version.PackagePath+".Minor=4 -X "+version.PackagePath+".Patch=0\n",
		stdout,
	)
}

func TestVerboseLoggingGoesToStderr(t *testing.T) {
	t.Parallel()

	stdout, stderr, err := newHarness(nil, stamped, fakeSource{}).run(t, "--log-level", "verbose", "ldflags", "--release", "1.0.0")

	require.NoError(t, err)
	assert.NotContains(t, stdout, "ldflags rendered")
	assert.Contains(t, stderr, "ldflags rendered")
}

func TestConflictingSettingIsLogged(t *testing.T) {
	t.Parallel()

	env := map[string]string{envOutput: "text"}
	_, stderr, err := newHarness(env, stamped, fakeSource{}).run(t, "version", "--output", "json")

	require.NoError(t, err)
	assert.Contains(t, stderr, "config: conflict for output")
}

func TestUnknownLogLevelFails(t *testing.T) {
	t.Parallel()

	_, _, err := newHarness(nil, stamped, fakeSource{}).run(t, "--log-level", "loud", "channel")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuring logger")
}
