package mail

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FileAgent writes each message to a file instead of delivering it.
// Used in development and tests.
type FileAgent struct {
	mu  sync.Mutex
	dir string
	seq int
}

// NewFileAgent creates an agent writing into dir, creating it if needed
func NewFileAgent(dir string) (*FileAgent, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create mail output dir: %w", err)
	}
	return &FileAgent{dir: dir}, nil
}

// Send writes the message to a timestamped file in the output directory
func (a *FileAgent) Send(ctx context.Context, recipient, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	a.seq++
	name := fmt.Sprintf("%s-%04d.eml", time.Now().UTC().Format("20060102T150405"), a.seq)
	a.mu.Unlock()

	var msg strings.Builder
	fmt.Fprintf(&msg, "To: %s\n", recipient)
	fmt.Fprintf(&msg, "Subject: %s\n", subject)
	msg.WriteString("\n")
	msg.WriteString(body)

	return os.WriteFile(filepath.Join(a.dir, name), []byte(msg.String()), 0o644)
}
