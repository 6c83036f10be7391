// Package order contains the Order aggregate and its value objects: the
// delivery lifecycle status machine, line items, the destination address,
// payment state, kitchen preparation timing, and the append-only timeline.
package order
