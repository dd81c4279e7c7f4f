// Package dispatch implements the notification dispatch engine.
//
// A Notifier owns an ordered registry of named channels and an optional
// fallback order. A single Send call is one campaign:
//
//   - Without a fallback order, the campaign broadcasts to every registered
//     channel in registration order and fails fast on the first delivery
//     error (propagated verbatim).
//   - With a fallback order, the campaign tries exactly the named channels in
//     that order and stops at the first success. Individual failures are
//     logged and swallowed; only full exhaustion surfaces an error
//     (ErrAllChannelsFailed).
//
// These are two distinct algorithms, not one algorithm with a default
// parameter: broadcast is "all-or-first-failure", fallback is
// "first-success-wins".
//
// Channel invocations within a campaign are strictly sequential. Both modes
// depend on that ordering, so the engine never fans out concurrently even
// though each channel send is independent. The engine imposes no per-channel
// timeout and performs no retries; both are channel-implementation concerns.
//
// A campaign is not durable: it is not persisted, not retried across process
// restarts, and carries no delivery receipt beyond the returned error.
package dispatch
