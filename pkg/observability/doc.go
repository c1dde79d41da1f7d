/*
Package observability turns conversation lifecycle events into metrics and logs.

Both are delivered as domain.LifecycleHooks, so they can be merged and handed to
conversation.NewMachine without the state machine knowing about either.
*/
package observability
