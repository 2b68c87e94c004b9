// Package chat is the conversation orchestrator: the only part of the
// system with decision logic.
//
// A chat request resolves the agent, dispatches to the provider, appends a
// conversation record, and opens a ticket when the provider's confidence
// falls below the fixed 0.7 threshold. A provider failure aborts the whole
// request with zero writes.
package chat
