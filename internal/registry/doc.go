// Package registry owns agent records: create, list, get, update, delete,
// including the mapping between locally issued agent IDs and the provider's
// remote identifiers.
package registry
