// Package tools loads the tool catalog advertised to the reasoning engine
// and validates engine-emitted tool arguments against each tool's schema.
package tools
