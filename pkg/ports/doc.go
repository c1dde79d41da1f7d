/*
Package ports defines the driven ports (interfaces) of the parley front-end.

These interfaces decouple the conversation core from external implementations, allowing the
state machine to work with any completion provider, session backend or secret source.

# Key Interfaces

  - CompletionProvider: Sends a transcript to a hosted model and returns the reply.
  - SessionStore: Persists session context (Memory, File or Redis).
  - DistributedLocker: Serializes turns of the same session across replicas.
  - SecretStore: Read-only lookup of process-wide secrets (the API key).
*/
package ports
