// Package provider wraps outbound calls to the Lyzr conversational-AI
// provider behind the Backend interface.
//
// The concrete backend is chosen once at startup: HTTPBackend when an API
// key is configured, Mock otherwise. Mock mode never touches the network,
// which keeps the rest of the system testable offline.
//
// Every provider-supplied confidence score is normalized here: missing
// scores default to 0 and all scores are clamped to [0, 1] before callers
// see them, so arbitrary upstream floats can never drive the ticket
// escalation comparison.
package provider
