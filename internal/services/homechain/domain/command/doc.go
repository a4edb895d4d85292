// Package command defines the transaction envelope submitted by registry
// participants and the registry that validates it.
//
// A command is the immutable request to move a property or mortgage through
// its lifecycle. The registry normalizes actor identity and canonicalizes the
// payload JSON so deciders only ever see well-formed input.
package command
