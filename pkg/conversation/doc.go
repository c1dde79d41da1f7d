/*
Package conversation implements the per-session chat state machine.

A session is either Idle or AwaitingResponse. Submitting non-empty text appends a user
message and sends the whole transcript (system message included) to the completion provider;
a reply appends one assistant message, a failure appends nothing more. Clear resets the
transcript to its single system message.

The Machine is stateless with respect to transcripts: every call receives the explicit
*domain.Session it operates on, so the same Machine serves any number of isolated sessions.
*/
package conversation
