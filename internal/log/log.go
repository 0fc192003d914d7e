package log

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
)

// EnvLevel overrides the configured level when set.
const EnvLevel = "OPCACHE_LOG"

// InitLogger installs the compact handler on stderr and sets the level,
// preferring OPCACHE_LOG over level. Unknown levels fall back to info.
func InitLogger(level string) {
	if env := os.Getenv(EnvLevel); env != "" {
		level = env
	}
	log.SetHandler(NewHandler(os.Stderr))

	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}

// Handler writes one line per entry: timestamp, level initial, message and
// the entry fields in key order.
type Handler struct {
	mu  sync.Mutex
	out io.Writer
}

func NewHandler(out io.Writer) *Handler {
	return &Handler{out: out}
}

// HandleLog implements log.Handler.
func (h *Handler) HandleLog(e *log.Entry) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %.1s %s",
		e.Timestamp.Format(time.DateTime),
		strings.ToUpper(e.Level.String()),
		e.Message)

	names := e.Fields.Names()
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, " %s=%v", name, e.Fields.Get(name))
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}
