// Package utils exposes the configuration and logging helpers the CLI builds on.
//
// ConfigurationLoader layers embedded defaults, an optional configuration file, and
// INPUT_-prefixed environment variables through Viper. LoggerFactory builds zap loggers whose
// encoding follows the attached terminal unless a format is requested explicitly.
package utils
