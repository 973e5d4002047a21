package ui

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Spinner animates a loading indicator while a blocking step runs (RPC
// probing, feed reads). It writes to stderr so piped stdout stays clean.
type Spinner struct {
	out    io.Writer
	frames []string
	msg    string
	stop   chan struct{}
	done   chan struct{}
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// NewSpinner creates a new spinner with the given message.
func NewSpinner(msg string) *Spinner {
	return &Spinner{
		out:    os.Stderr,
		frames: spinnerFrames,
		msg:    msg,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start begins the spinner animation in a goroutine.
func (s *Spinner) Start() {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()
		for i := 0; ; i++ {
			frame := StyleNetwork.Render(s.frames[i%len(s.frames)])
			fmt.Fprintf(s.out, "\r%s  %s", frame, s.msg)
			select {
			case <-s.stop:
				fmt.Fprintf(s.out, "\r%-60s\r", "")
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop halts the spinner and waits for it to finish.
func (s *Spinner) Stop() {
	close(s.stop)
	<-s.done
}

// Run shows the spinner while fn executes.
func Run[T any](msg string, fn func() (T, error)) (T, error) {
	s := NewSpinner(msg)
	s.Start()
	defer s.Stop()
	return fn()
}
