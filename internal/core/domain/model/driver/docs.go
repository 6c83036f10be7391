// Package driver contains the Driver aggregate: delivery personnel with a
// position, served zones, and a dispatch status tied to route assignment.
package driver
