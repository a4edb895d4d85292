// Package participant models the people and institutions that take part in a
// property transaction, including the mortgage a person holds.
//
// Person state only changes by folding mortgage events; the workflow package
// decides which events to emit.
package participant
