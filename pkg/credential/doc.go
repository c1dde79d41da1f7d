/*
Package credential resolves the API key used for an outbound completion request.

Candidates are consulted in a fixed priority order and the first non-empty one wins:

 1. The secret store (process-wide, read-only).
 2. The session-local override typed into the masked key field.
 3. The environment variable fallback (optional).

Resolution is repeated on every submission, so a key pasted mid-session takes effect on the
next turn. Nothing is cached and nothing is written anywhere.
*/
package credential
