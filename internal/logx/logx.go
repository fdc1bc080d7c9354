// Package logx contains the apex/log handler used by build-libssl.
package logx

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/apex/log"
	"github.com/fatih/color"
	colorable "github.com/mattn/go-colorable"
)

// bold is used for the level marker.
var bold = color.New(color.Bold)

// Colors maps each level to its color.
var Colors = [...]*color.Color{
	log.DebugLevel: color.New(color.FgWhite),
	log.InfoLevel:  color.New(color.FgBlue),
	log.WarnLevel:  color.New(color.FgYellow),
	log.ErrorLevel: color.New(color.FgRed),
	log.FatalLevel: color.New(color.FgRed),
}

// Strings maps each level to its marker.
var Strings = [...]string{
	log.DebugLevel: "•",
	log.InfoLevel:  "•",
	log.WarnLevel:  "•",
	log.ErrorLevel: "⨯",
	log.FatalLevel: "⨯",
}

// Emojis maps each level to its marker when [Handler.Emoji] is set.
var Emojis = [...]string{
	log.DebugLevel: "🧐",
	log.InfoLevel:  "🗒️ ",
	log.WarnLevel:  "🔥",
	log.ErrorLevel: "💣",
	log.FatalLevel: "🤯",
}

// Handler is a [log.Handler] for the command line.
type Handler struct {
	// Emoji OPTIONALLY uses emojis as level markers.
	Emoji bool

	// Padding is the padding before the level marker.
	Padding int

	// Writer is the MANDATORY writer to use.
	Writer io.Writer

	mu sync.Mutex
}

var _ log.Handler = &Handler{}

// NewHandler creates a new [Handler] writing to w. When w is a
// terminal file we wrap it such that colors work everywhere.
func NewHandler(w io.Writer) *Handler {
	if f, ok := w.(*os.File); ok {
		w = colorable.NewColorable(f)
	}
	return &Handler{
		Padding: 3,
		Writer:  w,
	}
}

// NewHandlerWithDefaultSettings creates a new [Handler] writing to the stderr.
func NewHandlerWithDefaultSettings() *Handler {
	return NewHandler(os.Stderr)
}

// HandleLog implements log.Handler.
func (h *Handler) HandleLog(e *log.Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	level := e.Level
	if level < log.DebugLevel || level > log.FatalLevel {
		level = log.InfoLevel
	}
	c := Colors[level]
	marker := Strings[level]
	if h.Emoji {
		marker = Emojis[level]
	}

	var b strings.Builder
	b.WriteString(c.Sprintf("%s %-25s", bold.Sprintf("%*s", h.Padding+1, marker), e.Message))
	for _, name := range e.Fields.Names() {
		fmt.Fprintf(&b, " %s=%v", c.Sprint(name), e.Fields.Get(name))
	}
	b.WriteString("\n")
	_, err := io.WriteString(h.Writer, b.String())
	return err
}
