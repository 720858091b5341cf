// Package cli provides command-line interface setup and configuration
// for the phonevalidator application. It handles flag parsing, command
// creation, configuration management using cobra and viper, and builds
// the provider configurations and logger the processor runs with.
package cli
