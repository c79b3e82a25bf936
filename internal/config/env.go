package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Env is an environment lookup capability: the process environment layered
// over values read from env files. Process values always win.
type Env struct {
	lookup func(string) (string, bool)
	files  map[string]string
}

// ProcessEnv returns an Env backed only by the process environment.
func ProcessEnv() Env {
	return Env{lookup: os.LookupEnv}
}

// MapEnv returns an Env over a fixed set of values, for callers that must not
// observe the process environment.
func MapEnv(values map[string]string) Env {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return Env{lookup: func(key string) (string, bool) {
		v, ok := copied[key]
		return v, ok
	}}
}

// WithFiles returns a copy of e with the given env files loaded beneath it.
// Later files override earlier ones; blank paths are ignored.
func (e Env) WithFiles(paths ...string) (Env, error) {
	out := Env{lookup: e.lookup}
	if len(e.files) > 0 {
		out.files = make(map[string]string, len(e.files))
		for k, v := range e.files {
			out.files[k] = v
		}
	}
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		values, err := godotenv.Read(path)
		if err != nil {
			return Env{}, fmt.Errorf("reading env file %s: %w", path, err)
		}
		if out.files == nil {
			out.files = make(map[string]string, len(values))
		}
		for k, v := range values {
			out.files[k] = v
		}
	}
	return out, nil
}

// Lookup reports the value of key and whether it is set.
func (e Env) Lookup(key string) (string, bool) {
	if e.lookup != nil {
		if v, ok := e.lookup(key); ok {
			return v, true
		}
	}
	v, ok := e.files[key]
	return v, ok
}
