/*
Package session implements session management for the chat front-end.

It serializes access to each session so that at most one turn is in flight per session,
integrating local ref-counted mutexes with optional distributed locking when several replicas
share one session store.
*/
package session
