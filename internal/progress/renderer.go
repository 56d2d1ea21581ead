package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Renderer draws a set of progress bars in place: every Render call moves
// the cursor back up over the previously drawn lines and overwrites them,
// so callers can invoke it from a progress callback without spawning a
// display goroutine.
type Renderer struct {
	bars   []*Bar
	output io.Writer
	mu     sync.Mutex
	drawn  bool
}

// NewRenderer creates a Renderer that will manage the provided progress bars.
// It uses stdout as the default output destination.
func NewRenderer(bars []*Bar) *Renderer {
	return &Renderer{
		bars:   bars,
		output: os.Stdout,
	}
}

// Render redraws every bar. The first call draws fresh lines; subsequent
// calls clear and overwrite them using ANSI escape codes.
func (r *Renderer) Render() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.drawn {
		for range r.bars {
			_, _ = fmt.Fprint(r.output, "\033[1A\033[K")
		}
	}

	for _, bar := range r.bars {
		_, _ = fmt.Fprintln(r.output, bar.String())
	}

	r.drawn = true
}

// Stop clears the drawn bars from the screen so whatever the caller
// prints next starts on a clean line. Safe to call more than once.
func (r *Renderer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.drawn {
		return
	}

	for range r.bars {
		_, _ = fmt.Fprint(r.output, "\033[1A\033[K")
	}

	r.drawn = false
}
