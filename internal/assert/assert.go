// Package assert checks programming invariants that no input can violate.
package assert

import (
	"fmt"
	"runtime/debug"
)

// That panics with msg and the current stack when condition is false.
func That(condition bool, msg string, args ...any) {
	if !condition {
		panic("assertion failed: " + fmt.Sprintf(msg, args...) + "\n" + string(debug.Stack()))
	}
}
