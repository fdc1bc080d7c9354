package buildloop

//
// Showing the tail of a log file
//

import (
	"bufio"
	"os"

	"github.com/ooni/build-libssl/internal/must"
)

// Tail returns the last n lines of the given file.
func Tail(filename string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	fp, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer fp.Close()

	ring := make([]string, 0, n)
	scanner := bufio.NewScanner(fp)
	scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for scanner.Scan() {
		if len(ring) == n {
			ring = ring[1:]
		}
		ring = append(ring, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ring, nil
}

// dumpLogTail writes the last [TailLines] lines of the log to stderr.
func (b *Builder) dumpLogTail(filename string) {
	lines, err := Tail(filename, TailLines)
	if err != nil {
		b.Logger.Warnf("cannot read %s: %s", filename, err.Error())
		return
	}
	w := b.stderr()
	must.Fprintf(w, "**** last %d lines of %s ****\n", TailLines, filename)
	for _, line := range lines {
		must.Fprintf(w, "%s\n", line)
	}
	must.Fprintf(w, "**** end of %s ****\n", filename)
}
