// Package config provides a type-safe, generic and cached way to load
// application configuration from environment variables.
//
// It wraps `github.com/joho/godotenv` and `github.com/caarlos0/env/v11`:
//
//   - Loads values from one or multiple `.env` files (falling back to the
//     default `.env` in the current working directory).
//   - Parses the environment into any Go struct using field tags.
//   - Caches each successfully loaded configuration type so it is only
//     parsed once for the lifetime of the process.
//   - Exposes helpers that panic on failure (`MustLoadEnv`, `MustLoad`) for
//     configuration the process cannot start without.
//
// # Usage
//
// Annotate a struct with `env` tags and load it:
//
//	type ClientConfig struct {
//	    APIBaseURL string `env:"API_BASE_URL,required"`
//	    DataDir    string `env:"DATA_DIR" envDefault:"./data"`
//	}
//
//	var cfg ClientConfig
//	if err := config.Load(&cfg); err != nil {
//	    log.Fatalf("parsing env: %v", err)
//	}
//
// Subsequent calls to `config.Load(&cfg)` are served from the in-memory
// cache without re-parsing.
//
// # Testing Helpers
//
// Use `ResetCache()` to clear the global cache between tests, or
// `ForceReloadConfig(&cfg)` to re-parse a particular struct after the
// process environment changes.
package config
