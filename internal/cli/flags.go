package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/launchbynttdata/build-info/internal/config"
)

type flagBase struct {
	fs     *pflag.FlagSet
	name   string
	envKey string
}

func newFlagBase(fs *pflag.FlagSet, name, envKey string) flagBase {
	return flagBase{fs: fs, name: name, envKey: envKey}
}

func (b flagBase) changed() bool {
	if b.fs == nil || b.name == "" {
		return false
	}
	return b.fs.Changed(b.name)
}

func describeUsage(usage, envKey string) string {
	trimmed := strings.TrimSpace(usage)
	if envKey == "" {
		return trimmed
	}
	if trimmed == "" {
		return fmt.Sprintf("env: %s", envKey)
	}
	return fmt.Sprintf("%s (env: %s)", trimmed, envKey)
}

type stringFlag struct {
	base       flagBase
	defaultVal string
	value      string
}

func bindStringFlag(fs *pflag.FlagSet, name, short, envKey, defaultVal, usage string) *stringFlag {
	f := &stringFlag{
		base:       newFlagBase(fs, name, envKey),
		defaultVal: defaultVal,
		value:      defaultVal,
	}
	if fs == nil {
		return f
	}
	if short != "" {
		fs.StringVarP(&f.value, name, short, defaultVal, describeUsage(usage, envKey))
	} else {
		fs.StringVar(&f.value, name, defaultVal, describeUsage(usage, envKey))
	}
	return f
}

func (f *stringFlag) Value(resolver config.Resolver) string {
	cliVal := strings.TrimSpace(f.value)
	return resolver.String(f.base.name, f.base.envKey, cliVal, f.base.changed(), f.defaultVal)
}

type boolFlag struct {
	base       flagBase
	defaultVal bool
	value      bool
}

func bindBoolFlag(fs *pflag.FlagSet, name, short, envKey string, defaultVal bool, usage string) *boolFlag {
	f := &boolFlag{
		base:       newFlagBase(fs, name, envKey),
		defaultVal: defaultVal,
		value:      defaultVal,
	}
	if fs == nil {
		return f
	}
	if short != "" {
		fs.BoolVarP(&f.value, name, short, defaultVal, describeUsage(usage, envKey))
	} else {
		fs.BoolVar(&f.value, name, defaultVal, describeUsage(usage, envKey))
	}
	return f
}

func (f *boolFlag) Value(resolver config.Resolver) (bool, error) {
	return resolver.Bool(f.base.name, f.base.envKey, f.value, f.base.changed(), f.defaultVal)
}
