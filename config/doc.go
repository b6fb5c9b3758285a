// Package config loads flowkit configuration.
//
// It uses Viper to read a config.yml and godotenv to load a .env file, then
// overlays environment variables prefixed with FLOWKIT_ (for example
// FLOWKIT_SCHEDULER_MAX_PARALLEL=4 sets scheduler.max_parallel).
//
// # Usage
//
//	var cfg config.FlowConfig
//	if err := config.LoadConfig("etl", &cfg); err != nil { ... }
//	cfg.ApplyDefaults()
//	if err := cfg.Validate(); err != nil { ... }
package config
