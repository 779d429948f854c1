// Package fact implements the temporal fact memory for the Kolmo portal:
// atomic, versioned statements extracted from project conversations,
// stored in PostgreSQL with pgvector embeddings and retrieved by meaning.
//
// The package has four cooperating parts:
//
//   - Store: persistence and the supersession chain. Old versions are
//     never deleted; a correction creates a new version and links the
//     old one to it inside a single transaction.
//   - Resolver: decides whether an incoming candidate is a fresh fact
//     or an update to an existing one, driven by an explicit hint from
//     the upstream extractor.
//   - Engine: semantic search. Embeds the query, runs a pgvector
//     similarity query, and falls back to keyword matching whenever the
//     embedding provider is unavailable.
//   - Service: the caller-facing facade wiring the three together. It
//     is the only mutation surface the rest of the application sees.
//
// All mutation goes through Store methods; reads take no locks and run
// fully concurrently with writes.
package fact
