// Package analytics derives summary statistics for the dashboard.
//
// The cross-agent overview is computed from local conversation and ticket
// records, with the average confidence rounded to two decimals. Per-agent
// analytics are proxied straight from the provider without blending in
// local data.
package analytics
