package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/launchbynttdata/build-info/internal/config"
	"github.com/launchbynttdata/build-info/internal/logging"
	"github.com/launchbynttdata/build-info/internal/stamp"
	"github.com/launchbynttdata/build-info/internal/vcs"
	"github.com/launchbynttdata/build-info/internal/version"
)

const (
	envLogLevel  = "BI_LOG_LEVEL"
	envEnvFile   = "BI_ENV_FILE"
	envOutput    = "BI_OUTPUT"
	envShort     = "BI_SHORT"
	envRepoDir   = "BI_REPO_DIR"
	envGitBinary = "BI_GIT_BINARY"
	envRelease   = "BI_RELEASE"
	envPackage   = "BI_PACKAGE"

	requiredFlagFormat = "%s is required"
)

const (
	flagRelease = "release"
	flagPackage = "package"
	flagOutput  = "output"
	flagShort   = "short"

	defaultRepoDir = "."
	defaultGit     = "git"
)

// Execute runs the CLI root command with the provided context.
func Execute(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return newRootCommand(defaultDependencies()).ExecuteContext(ctx)
}

// dependencies are the seams the commands reach the outside world through.
type dependencies struct {
	env       config.Env
	inputs    func() version.Inputs
	newSource func(vcs.Config) vcs.Source
}

func defaultDependencies() dependencies {
	return dependencies{
		env:    config.ProcessEnv(),
		inputs: version.BuildInputs,
		newSource: func(cfg vcs.Config) vcs.Source {
			return vcs.NewGit(cfg)
		},
	}
}

type rootFlagSet struct {
	logLevel *stringFlag
	envFile  *stringFlag
}

type repoFlagSet struct {
	dir *stringFlag
	git *stringFlag
}

type runtimeConfig struct {
	resolver config.Resolver
	logger   *zap.Logger
}

func newRootCommand(deps dependencies) *cobra.Command {
	var showVersion bool
	cmd := &cobra.Command{
		Use:           "buildinfo",
		Short:         "Build version metadata",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !showVersion {
				return cmd.Help()
			}
			v, err := version.Parse(deps.inputs(), nil)
			if err != nil {
				return fmt.Errorf("reading build metadata: %w", err)
			}
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), "buildinfo "+v.Long()); err != nil {
				return fmt.Errorf("writing version info: %w", err)
			}
			return nil
		},
	}

	// Registered by hand rather than through cmd.Version so the flag exists
	// even when the stamped inputs are malformed.
	cmd.Flags().BoolVarP(&showVersion, "version", "v", false, "Print the long version and exit")

	flags := bindRootFlags(cmd)
	cmd.AddCommand(
		newVersionCommand(flags, deps),
		newChannelCommand(flags, deps),
		newDescribeCommand(flags, deps),
		newLDFlagsCommand(flags, deps),
	)

	return cmd
}

func bindRootFlags(cmd *cobra.Command) *rootFlagSet {
	fs := cmd.PersistentFlags()
	return &rootFlagSet{
		logLevel: bindStringFlag(fs, "log-level", "", envLogLevel, logging.LevelTerse, "Log verbosity (quiet, terse or verbose)"),
		envFile:  bindStringFlag(fs, "env-file", "", envEnvFile, "", "Optional .env file read beneath the process environment"),
	}
}

func bindRepoFlags(cmd *cobra.Command) *repoFlagSet {
	fs := cmd.Flags()
	return &repoFlagSet{
		dir: bindStringFlag(fs, "dir", "C", envRepoDir, defaultRepoDir, "Repository directory to query"),
		git: bindStringFlag(fs, "git", "", envGitBinary, defaultGit, "git executable"),
	}
}

func (f *repoFlagSet) source(runtime runtimeConfig, deps dependencies) vcs.Source {
	return deps.newSource(vcs.Config{
		Dir:    f.dir.Value(runtime.resolver),
		Binary: f.git.Value(runtime.resolver),
		Logger: runtime.logger,
	})
}

func newVersionCommand(rootFlags *rootFlagSet, deps dependencies) *cobra.Command {
	var shortFlag *boolFlag
	var outputFlag *stringFlag

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build metadata",
		RunE: func(cmd *cobra.Command, _ []string) error {
			runtime, cleanup, err := buildRuntime(cmd, rootFlags, deps)
			if err != nil {
				return err
			}
			defer cleanup()

			v, err := version.Parse(deps.inputs(), runtime.resolver.Lookup)
			if err != nil {
				return fmt.Errorf("reading build metadata: %w", err)
			}

			short, err := shortFlag.Value(runtime.resolver)
			if err != nil {
				return err
			}
			format, err := parseOutputFormat(outputFlag.Value(runtime.resolver))
			if err != nil {
				return err
			}
			if short && format != outputText {
				return fmt.Errorf("--%s only applies to %s output", flagShort, outputText)
			}

			channel, _ := v.HostCompiler()
			runtime.logger.Debug("build metadata resolved",
				zap.String("short", v.Short()),
				zap.String("channel", channel),
				zap.String("output", string(format)),
			)

			if short {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), v.Short()); err != nil {
					return fmt.Errorf("writing version info: %w", err)
				}
				return nil
			}
			return renderVersion(cmd.OutOrStdout(), v, format)
		},
	}

	fs := cmd.Flags()
	shortFlag = bindBoolFlag(fs, flagShort, "s", envShort, false, "Print only major.minor.patch")
	outputFlag = bindStringFlag(fs, flagOutput, "o", envOutput, string(outputText), "Output format (text, json, yaml or table)")

	return cmd
}

func newChannelCommand(rootFlags *rootFlagSet, deps dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "channel",
		Short: "Print the release channel (" + version.ChannelEnv + ")",
		RunE: func(cmd *cobra.Command, _ []string) error {
			runtime, cleanup, err := buildRuntime(cmd, rootFlags, deps)
			if err != nil {
				return err
			}
			defer cleanup()

			if _, err := fmt.Fprintln(cmd.OutOrStdout(), version.Channel(runtime.resolver.Lookup)); err != nil {
				return fmt.Errorf("writing channel: %w", err)
			}
			return nil
		},
	}
}

func newDescribeCommand(rootFlags *rootFlagSet, deps dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Print the commit descriptor and date the next build would stamp",
	}

	repoFlags := bindRepoFlags(cmd)

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		runtime, cleanup, err := buildRuntime(cmd, rootFlags, deps)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()
		src := repoFlags.source(runtime, deps)

		describe, describeOK := src.Describe(ctx)
		date, dateOK := src.LastCommitDate(ctx)

		out := cmd.OutOrStdout()
		if _, err := fmt.Fprintf(out, "describe: %s\ndate: %s\n", orUnavailable(describe, describeOK), orUnavailable(date, dateOK)); err != nil {
			return fmt.Errorf("writing commit metadata: %w", err)
		}
		return nil
	}

	return cmd
}

func newLDFlagsCommand(rootFlags *rootFlagSet, deps dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ldflags",
		Short: "Print the -ldflags value that stamps build metadata into a binary",
		Example: `  go build -ldflags "$(buildinfo ldflags --release 0.1.0)" .
  buildinfo ldflags --release v1.2.3 --package example.com/app/internal/version`,
	}

	repoFlags := bindRepoFlags(cmd)
	fs := cmd.Flags()
	releaseFlag := bindStringFlag(fs, flagRelease, "r", envRelease, "", "Release version as major.minor.patch")
	packageFlag := bindStringFlag(fs, flagPackage, "p", envPackage, version.PackagePath, "Import path of the package holding the version variables")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		runtime, cleanup, err := buildRuntime(cmd, rootFlags, deps)
		if err != nil {
			return err
		}
		defer cleanup()

		release := strings.TrimSpace(releaseFlag.Value(runtime.resolver))
		if release == "" {
			return fmt.Errorf(requiredFlagFormat+" (set %s or --%s)", flagRelease, envRelease, flagRelease)
		}
		pkg := strings.TrimSpace(packageFlag.Value(runtime.resolver))

		in, err := stamp.Collect(cmd.Context(), release, repoFlags.source(runtime, deps))
		if err != nil {
			return err
		}

		log := runtime.logger.With(
			zap.String("package", pkg),
			zap.String("release", in.Major+"."+in.Minor+"."+in.Patch),
		)
		if in.CommitDescribe != "" {
			log = log.With(zap.String("describe", in.CommitDescribe))
		}
		if in.CommitDate != "" {
			log = log.With(zap.String("date", in.CommitDate))
		}
		log.Debug("ldflags rendered")

		ldflags, err := stamp.LDFlags(pkg, in)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), ldflags); err != nil {
			return fmt.Errorf("writing ldflags: %w", err)
		}
		return nil
	}

	return cmd
}

func buildRuntime(cmd *cobra.Command, flags *rootFlagSet, deps dependencies) (runtimeConfig, func(), error) {
	bootstrap := config.NewResolver(zap.NewNop(), deps.env)
	env, err := deps.env.WithFiles(flags.envFile.Value(bootstrap))
	if err != nil {
		return runtimeConfig{}, nil, fmt.Errorf("loading environment: %w", err)
	}

	logLevel := flags.logLevel.Value(config.NewResolver(zap.NewNop(), env))
	logger, err := logging.New(logLevel, cmd.ErrOrStderr())
	if err != nil {
		return runtimeConfig{}, nil, fmt.Errorf("configuring logger: %w", err)
	}

	resolver := config.NewResolver(logger, env)
	// Resolved again with the real logger so a conflict on the level itself is reported.
	_ = flags.logLevel.Value(resolver)

	cleanup := func() {
		_ = logger.Sync()
	}

	return runtimeConfig{
		resolver: resolver,
		logger:   logger,
	}, cleanup, nil
}

func orUnavailable(value string, ok bool) string {
	if !ok {
		return "(unavailable)"
	}
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "(empty)"
	}
	return trimmed
}
