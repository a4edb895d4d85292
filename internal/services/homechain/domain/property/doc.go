// Package property models sellable property, its sale status, and the offers
// made against it.
package property
