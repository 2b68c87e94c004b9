// Package store provides persistence for agents, conversations, tickets, and
// legacy support requests.
//
// # Architecture
//
// All storage flows through the Store interface so the services above it
// (registry, chat orchestrator, analytics) never depend on a concrete
// backend. Two implementations exist:
//
//   - MemoryStore: volatile in-memory maps guarded by a RWMutex. The default
//     backend; records live for the process lifetime.
//   - SQLiteStore: durable variant using modernc.org/sqlite with an
//     auto-created schema and WAL mode.
//
// # Identifiers
//
// Each store issues entity IDs from its own monotonic counter, formatted as a
// human-readable prefix plus a zero-padded sequence number:
//
//	agent_0001, chat_0001, ticket_0001, SR-0001
//
// MemoryStore counters reset on restart, so its IDs are collision-free only
// within one process. SQLiteStore keeps counters in a table, surviving
// restarts.
//
// # Referential integrity
//
// Agent IDs on conversations and tickets are deliberately not foreign keys:
// deleting an agent leaves its conversations and tickets in place as
// independent historical records. No cross-store transaction spans an agent
// delete and its dependents.
//
// # Error Handling
//
// ErrNotFound is the only sentinel: any get/update/delete of an absent entity
// returns it. All methods accept context.Context.
package store
