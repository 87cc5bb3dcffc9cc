// Package config loads the run configuration of the meterlog CLI from a YAML
// file, METERLOG_* environment variables and command-line flags. Files are
// checked against an embedded JSON schema, decoded values are validated, and
// the resolved configuration can be written back as YAML next to the logs.
package config
