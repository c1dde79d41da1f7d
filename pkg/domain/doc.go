/*
Package domain contains the core domain models of the parley chat front-end.

It defines the conversation entities shared by the state machine, the storage adapters and
the presentation layers. This package is kept pure and free of external dependencies like I/O
or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Message: One role-tagged entry of a chat (system, user or assistant).
  - Transcript: The ordered list of Messages owned by a single session.
  - Settings: Per-session model and sampling parameters.
  - Session: The explicit session context handed to every handler (Transcript + Settings).
  - Completion: The provider's reply to a transcript, with optional token usage.
*/
package domain
