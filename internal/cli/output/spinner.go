package output

import (
	"fmt"
	"io"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner shows progress for a long-running step on a terminal.
// Callers should only start one when the effective mode is ModeText.
type Spinner struct {
	w       io.Writer
	msg     string
	styles  Styles
	mu      sync.Mutex
	done    chan struct{}
	stopped bool
}

// NewSpinner creates a spinner that writes to the renderer's output.
func (r *Renderer) NewSpinner(msg string) *Spinner {
	return &Spinner{
		w:      r.out,
		msg:    msg,
		styles: r.styles,
		done:   make(chan struct{}),
	}
}

// Start begins animating. It returns immediately.
func (s *Spinner) Start() {
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		frame := 0
		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				s.mu.Lock()
				if !s.stopped {
					fmt.Fprintf(s.w, "\r%s %s", s.styles.Info.Render(spinnerFrames[frame]), s.msg)
				}
				s.mu.Unlock()
				frame = (frame + 1) % len(spinnerFrames)
			}
		}
	}()
}

// Success stops the spinner and replaces it with a checkmark line.
func (s *Spinner) Success(msg string) {
	s.finish(s.styles.StatusSuccess.String(), msg)
}

// Fail stops the spinner and replaces it with a failure line.
func (s *Spinner) Fail(msg string) {
	s.finish(s.styles.StatusFailed.String(), msg)
}

func (s *Spinner) finish(icon, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	close(s.done)
	// Clear the animation frame before printing the final line.
	fmt.Fprintf(s.w, "\r\033[K%s %s\n", icon, msg)
}
