/*
Package ports defines the driven ports (interfaces) of the Stagehand scene engine.

These interfaces decouple the router, the viewport and the scenes from the
chat API client and from the storage backends, so the same conversation flows
run against memory, Redis, SQLite or file stores and against any transport.

# Key Interfaces

  - Transport: Sends, edits and deletes messages and answers callback queries.
  - SessionStore: Persists the short-lived per-chat Session record.
  - MetadataStore: Persists the durable per-message MessageMetadata record.
  - Scheduler: Runs fire-and-forget delayed work (e.g. deleting a notification).
  - Dispatcher: Accepts decoded updates from an inbound surface (webhook, console).
*/
package ports
