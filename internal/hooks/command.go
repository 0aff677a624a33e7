package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/soyeahso/frontdesk/internal/config"
)

// DefaultCommandTimeout bounds a command hook without its own timeout.
const DefaultCommandTimeout = 10 * time.Second

const maxOutput = 512

// Command returns a handler that runs a shell command with the event JSON on
// stdin, e.g. a script that emails the studio about a new booking.
func Command(entry config.HookEntry) Handler {
	timeout := DefaultCommandTimeout
	if entry.Timeout > 0 {
		timeout = time.Duration(entry.Timeout) * time.Millisecond
	}
	return func(ctx context.Context, p Payload) error {
		body, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encoding %s payload: %w", p.Event, err)
		}

		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		cmd := exec.CommandContext(ctx, "sh", "-c", entry.Command)
		cmd.Stdin = bytes.NewReader(body)
		cmd.Env = append(cmd.Environ(),
			"FRONTDESK_EVENT="+p.Event,
			"FRONTDESK_EVENT_SEQ="+strconv.FormatInt(p.Seq, 10),
		)
		var out bytes.Buffer
		cmd.Stdout = &out
		cmd.Stderr = &out
		// children that inherit the pipes must not hold Run past the deadline
		cmd.WaitDelay = time.Second

		if err := cmd.Run(); err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return fmt.Errorf("hook %q timed out after %s", entry.Command, timeout)
			}
			return fmt.Errorf("hook %q: %w: %s", entry.Command, err, truncate(out.String()))
		}
		return nil
	}
}

// RegisterCommands wires configured command hooks to their events. Commands
// run asynchronously when the event is emitted with EmitAsync.
func (m *Manager) RegisterCommands(cfg config.HooksConfig) int {
	n := 0
	add := func(event string, entries []config.HookEntry) {
		for i, e := range entries {
			if strings.TrimSpace(e.Command) == "" {
				continue
			}
			m.On(event, fmt.Sprintf("command:%s:%d", event, i), Command(e))
			n++
		}
	}
	add(EventBookingCompleted, cfg.BookingCompleted)
	add(EventSessionStart, cfg.SessionStart)
	add(EventSessionEnd, cfg.SessionEnd)
	return n
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxOutput {
		return s[:maxOutput] + "..."
	}
	return s
}
