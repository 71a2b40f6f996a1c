// Package models defines the core domain models for billchat.
//
// # Current Models
//
//   - Bill: the receipt currently being split (items plus aggregate tax and tip)
//   - Item: a single charged line with the set of people assigned to share it
//   - PersonSummary: derived per-person breakdown (subtotal, tax share, tip share, total)
//   - Message: one entry in a session's chat log
//   - Session: one shared-bill conversation, owning a Bill and a chat log
//
// Participants are identified by name strings; there are no user accounts.
// Names are compared case-sensitively, so "alice" and "Alice" are distinct
// participants. That is a documented limitation, not a bug.
//
// # Design Principles
//
// 1. **Value semantics**: Bill and Item are plain values; mutations produce new
// values through constructor functions rather than in-place edits.
// 2. **Total arithmetic**: prices, tax, and tip are always finite and
// non-negative by construction, so downstream math never sees NaN or nil.
// 3. **Derived, never stored**: PersonSummary is recomputed from the Bill on
// every read and is never persisted, so it cannot drift from Bill state.
package models
