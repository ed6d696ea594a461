package logtail

import (
	"io"
	"strings"

	"github.com/hexar-io/hexarctl/internal/logging"
)

// levelTokens maps the tags the radar controller emits to severity.
var levelTokens = map[string]logging.Level{
	"DEBUG": logging.DEBUG,
	"INFO":  logging.INFO,
	"WARN":  logging.WARN,
	"ERROR": logging.ERROR,
}

// LineLevel returns the severity tag found in a log line. Lines without a
// recognizable tag (continuations, panics) report ok=false.
func LineLevel(line string) (logging.Level, bool) {
	for _, field := range strings.Fields(line) {
		token := strings.Trim(field, "[]():")
		if level, ok := levelTokens[token]; ok {
			return level, true
		}
	}
	return logging.INFO, false
}

// levelFilter drops complete lines below a minimum severity. Untagged lines
// pass through so stack traces stay attached to their context.
type levelFilter struct {
	out io.Writer
	min logging.Level
	buf strings.Builder
}

// NewLevelFilter wraps w so only lines at or above min are written.
func NewLevelFilter(w io.Writer, min logging.Level) io.Writer {
	return &levelFilter{out: w, min: min}
}

func (f *levelFilter) Write(p []byte) (int, error) {
	f.buf.Write(p)

	for {
		s := f.buf.String()
		idx := strings.IndexByte(s, '\n')
		if idx < 0 {
			break
		}
		line := s[:idx+1]
		f.buf.Reset()
		f.buf.WriteString(s[idx+1:])

		if level, tagged := LineLevel(line); !tagged || level >= f.min {
			if _, err := io.WriteString(f.out, line); err != nil {
				return len(p), err
			}
		}
	}
	return len(p), nil
}
