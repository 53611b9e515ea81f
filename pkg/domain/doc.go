/*
Package domain contains the core data model of the Stagehand scene engine.

It defines what travels between a chat surface and the conversation flows
("scenes") that drive it: incoming events, rendered views, render policies,
the per-chat Session bookkeeping, the durable per-message MessageMetadata and
the checksummed Snapshot used to restore a scene's state. The package is pure
and free of I/O so that stores, transports and the router can share it.

# Key Entities

  - View: What a scene wants on screen (text, inline keyboard, format).
  - Session: Short-lived per-chat bookkeeping (active scene, tracked message ids).
  - MessageMetadata: Durable record of which scene/state produced a message.
  - Snapshot: Serialized, checksummed scene state passed through restoration.
  - RenderPolicy: EditOrReply, EditOnly or SendNew.
*/
package domain
