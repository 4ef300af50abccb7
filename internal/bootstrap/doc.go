// Package bootstrap provisions the external formatter and confirms it can be executed before any file is touched.
package bootstrap
