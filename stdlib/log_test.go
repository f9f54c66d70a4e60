package stdlib

import (
	"bytes"
	"io"
	"os"
	"testing"

	"foxscript/value"
)

// captureStdout redirects os.Stdout for the duration of fn and returns
// everything written to it.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()

	w.Close()
	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

// Scenario C: log("hi", 2) prints a "[SCRIPT]: "-prefixed line containing
// both arguments, in reverse of the declared (already un-reversed by the
// VM) order Log receives them — the documented display quirk this
// package exists to preserve.
func TestLogPrintsReversePushOrder(t *testing.T) {
	out := captureStdout(t, func() {
		Log([]value.Value{value.Str("hi"), value.Int(2)})
	})
	want := "[SCRIPT]: 2 hi\n"
	if out != want {
		t.Errorf("Log(\"hi\", 2) printed %q, want %q", out, want)
	}
}

func TestLogFormatsEachArgumentKind(t *testing.T) {
	out := captureStdout(t, func() {
		Log([]value.Value{value.Int(1), value.Float(2.5), value.Str("s"), value.None_()})
	})
	want := "[SCRIPT]: [none] s 2.5 1\n"
	if out != want {
		t.Errorf("Log printed %q, want %q", out, want)
	}
}

func TestLogWithNoArguments(t *testing.T) {
	out := captureStdout(t, func() {
		Log(nil)
	})
	want := "[SCRIPT]: \n"
	if out != want {
		t.Errorf("Log() printed %q, want %q", out, want)
	}
}
