// Package must contains functions that panic on error.
package must

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ooni/build-libssl/internal/runtimex"
)

// Fprintf is like [fmt.Fprintf] but calls
// [runtimex.PanicOnError] on failure.
func Fprintf(w io.Writer, format string, v ...any) {
	_, err := fmt.Fprintf(w, format, v...)
	runtimex.PanicOnError(err, "fmt.Fprintf failed")
}

// FirstLineBytes takes in input a sequence of bytes and
// returns in output the first line. This function will
// call [runtimex.PanicOnError] on failure.
func FirstLineBytes(data []byte) []byte {
	first, _, good := bytes.Cut(data, []byte("\n"))
	runtimex.Assert(good, "could not find the first line")
	return first
}
