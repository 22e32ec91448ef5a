// Package config loads service configuration from the environment.
//
// Each package declares its own settings struct with caarlos0/env tags
// (pg.Config, queue.Config, polar.Config and so on). The binary reads any
// .env files with LoadEnv and then parses each struct with Load:
//
//	if err := config.LoadEnv(); err != nil {
//		return err
//	}
//	pgCfg, err := config.Load[pg.Config]()
//
// Tests pass WithEnvironment to parse from a map instead of the process
// environment.
package config
