// Package config loads, normalizes, and validates rptninja configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks for database
// credentials such as RPTNINJA_DB_USER. The Config type centralizes every knob
// the CLI and workflow runner need so the report tool location, working
// directory, and relocation policy are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
