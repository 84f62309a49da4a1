// Package voice speaks coaching feedback through an external text-to-speech
// command.
package voice

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os/exec"
	"sync"
	"time"
)

// Announcer runs a text-to-speech command with a timeout for each message.
// Messages are spoken one at a time; a message arriving while another is
// being spoken is dropped rather than queued, so feedback never lags the
// movement it refers to.
type Announcer struct {
	command   string
	timeoutMs int

	mu       sync.Mutex
	speaking bool
}

// NewAnnouncer creates an Announcer using the given command (for example
// "say" on macOS or "espeak" on Linux). The message is passed as the single
// argument. Non-positive timeouts default to 5000 ms.
func NewAnnouncer(command string, timeoutMs int) *Announcer {
	if timeoutMs <= 0 {
		timeoutMs = 5000
	}
	return &Announcer{
		command:   command,
		timeoutMs: timeoutMs,
	}
}

// Say speaks the message asynchronously. Failures are logged, never fatal.
func (a *Announcer) Say(text string) {
	if text == "" || a.command == "" {
		return
	}

	a.mu.Lock()
	if a.speaking {
		a.mu.Unlock()
		return
	}
	a.speaking = true
	a.mu.Unlock()

	go func() {
		defer func() {
			a.mu.Lock()
			a.speaking = false
			a.mu.Unlock()
		}()

		if err := a.run(text); err != nil {
			log.Printf("voice: %v", err)
		}
	}()
}

func (a *Announcer) run(text string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(a.timeoutMs)*time.Millisecond)
	defer cancel()

	cmd := exec.CommandContext(ctx, a.command, text)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("speech command timeout after %dms", a.timeoutMs)
	}

	if err != nil {
		if s := stderr.String(); s != "" {
			return fmt.Errorf("speech command failed: %w, stderr: %s", err, s)
		}
		return fmt.Errorf("speech command failed: %w", err)
	}

	return nil
}
