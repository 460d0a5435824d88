// Package config loads flakestry service configuration from environment
// variables and validates it before the service starts.
package config
