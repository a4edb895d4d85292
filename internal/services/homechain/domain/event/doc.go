// Package event defines the event envelope, the event-type registry, and the
// bus contract used to announce committed registry changes.
//
// Events are immutable facts emitted by accepted transactions. The registry
// checks actor metadata, entity addressing, and payload validity before the
// journal assigns identity and sequence.
package event
