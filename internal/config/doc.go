// Package config loads the server configuration from defaults, an optional
// config.yaml, an optional .env file and IMGTASK_ prefixed environment
// variables, in increasing order of precedence, and validates the result.
package config
