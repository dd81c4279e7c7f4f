// Package channel defines the capability contract between the dispatch
// engine and concrete delivery transports.
//
// A Channel is a named transport that can validate its own configuration and
// deliver a message to a set of recipients. The engine never branches on a
// concrete channel type; everything it knows about a transport flows through
// this interface.
//
// # Failure contract
//
// ValidateConfig is called once, at registration time, and never during a
// send. Send must attempt every recipient it is given; per-recipient
// failures are collected, not short-circuited, and the call returns a
// *DeliveryError if any recipient delivery failed. Each implementation
// performs exactly one outbound transport operation per recipient and never
// retries on its own.
package channel
