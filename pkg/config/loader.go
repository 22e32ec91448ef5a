package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Option adjusts how the environment is parsed.
type Option func(*env.Options)

// WithPrefix only reads variables starting with prefix. Tags are written
// without it.
func WithPrefix(prefix string) Option {
	return func(o *env.Options) {
		o.Prefix = prefix
	}
}

// WithEnvironment parses from m instead of the process environment.
func WithEnvironment(m map[string]string) Option {
	return func(o *env.Options) {
		o.Environment = m
	}
}

// LoadEnv reads .env files into the process environment. Variables already
// set win over the files, and files that do not exist are skipped. With no
// arguments it reads ".env" from the working directory.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		existing = append(existing, f)
	}
	if len(existing) == 0 {
		return nil
	}

	if err := godotenv.Load(existing...); err != nil {
		return errors.Join(ErrLoadingEnvFile, err)
	}
	return nil
}

// Load parses the environment into a new T using its env tags.
//
//	type Config struct {
//		Addr string `env:"HTTP_ADDR" envDefault:":8080"`
//		DSN  string `env:"PG_CONN_URL,required"`
//	}
//
//	cfg, err := config.Load[Config]()
func Load[T any](opts ...Option) (T, error) {
	var o env.Options
	for _, opt := range opts {
		opt(&o)
	}

	v, err := env.ParseAsWithOptions[T](o)
	if err != nil {
		var zero T
		return zero, errors.Join(ErrParsingConfig, err)
	}
	return v, nil
}

// MustLoad is Load that panics on error. It is meant for startup code.
func MustLoad[T any](opts ...Option) T {
	v, err := Load[T](opts...)
	if err != nil {
		panic(err)
	}
	return v
}
