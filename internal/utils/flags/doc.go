// Package flags provides pflag values for yes/no toggles and fixed-choice options.
package flags
