// Package config loads chartscout configuration from local and global YAML
// files with precedence rules. It is internal; CLI code maps flags, the
// environment and files into engine configuration.
package config
