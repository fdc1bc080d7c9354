package must

import (
	"bytes"
	"testing"
)

func TestFprintf(t *testing.T) {
	w := &bytes.Buffer{}
	Fprintf(w, "hello %s", "world")
	if w.String() != "hello world" {
		t.Fatal("unexpected buffer content")
	}
}

func TestFirstLineBytes(t *testing.T) {
	t.Run("when there is a first line", func(t *testing.T) {
		got := FirstLineBytes([]byte("17.0\nsomething else\n"))
		if string(got) != "17.0" {
			t.Fatal("unexpected first line", string(got))
		}
	})

	t.Run("when there is no newline", func(t *testing.T) {
		var panicked bool
		func() {
			defer func() {
				panicked = recover() != nil
			}()
			FirstLineBytes([]byte("17.0"))
		}()
		if !panicked {
			t.Fatal("expected a panic")
		}
	})
}
