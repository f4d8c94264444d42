// Package registry holds the producer pool: the table of downstream
// producers and the reverse index from event name to subscribed producer IDs.
//
// Files by concern:
//
//   - producer.go: Producer, one outbound destination and its subscriptions.
//   - registry.go: Registry type, constructor, mutations and read views.
//   - forward.go: ForwardTo / ForwardToAll / ForwardToEvent / ForwardToMany.
//   - loader.go: building producers from static specs (config, environment).
//   - errors.go: not-found error and helpers.
//
// Both maps are guarded by one lock and every mutation updates them in the
// same critical section, so for every id in index[event] the producer exists
// and is subscribed to event, and vice versa. The lock is never held across
// a send: forwarding snapshots the targets, releases the lock, then sends.
package registry
