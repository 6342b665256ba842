// Package config loads, normalizes, and validates subremux configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// SUBREMUX_API_TOKEN and SUBREMUX_FFMPEG. The Config type centralizes every
// knob the daemon and CLI need: the media library root, the uploads folder
// that receives subtitles and remuxed output, the ffmpeg binary, and job
// display/retention limits.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
