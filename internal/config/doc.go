// Package config loads, normalizes, and validates tubesync configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// RCLONE_CONFIG. The Config type centralizes every knob a batch run needs so
// the staging, queue, ledger, and lock paths plus the fetch and relocation
// engine settings are resolved once at startup and passed down explicitly.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
