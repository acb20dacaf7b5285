package assert

import (
	"strings"
	"testing"
)

func TestThat_Holds(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("That(true) panicked: %v", r)
		}
	}()
	That(true, "never")
}

func TestThat_Fails(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("That(false) did not panic")
		}
		msg, ok := r.(string)
		if !ok {
			t.Fatalf("panic value = %T, want string", r)
		}
		if !strings.Contains(msg, "code width 13") {
			t.Errorf("panic message = %q, want it to contain %q", msg, "code width 13")
		}
	}()
	That(false, "code width %d", 13)
}
