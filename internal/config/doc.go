// Package config loads and validates the support-gateway configuration.
//
// Configuration comes from a YAML file with ${VAR} environment expansion,
// layered over defaults that read the provider credential from the
// environment. A missing config file is not an error; the gateway boots on
// defaults with in-memory storage.
package config
