// Package workflow is the transaction processor for the property registry.
//
// Each transaction type has one handler that checks preconditions against the
// resolved entities and returns a command.Decision. The processor resolves the
// entities, folds accepted events into them, persists the result and the
// events in one unit of work, and publishes the events once committed.
package workflow
