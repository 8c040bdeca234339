// Package config loads runtime configuration for batikctl.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with --config.
//  3. Environment: BATIK_SERVER and BATIK_TOKEN.
//  4. Command-line flags, applied by the cli package on top of the result.
//
// # JSON schema
//
// The JSON loader uses timex.Duration for the request timeout, so it can be
// either a string like "30s" or integer nanoseconds:
//
//	{
//	  "server": "http://127.0.0.1:8080",
//	  "token": "eyJhbGciOi...",
//	  "request_timeout": "30s"
//	}
//
// Empty JSON fields leave the defaults untouched.
package config
