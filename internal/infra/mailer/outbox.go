package mailer

import (
	"context"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"qualification_reminder/internal/domain/mail"

	"github.com/sirupsen/logrus"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Outbox writes messages to a directory instead of sending them, for dry runs.
type Outbox struct {
	dir    string
	logger *logrus.Entry
	now    func() time.Time

	mu  sync.Mutex
	seq int
}

func NewOutbox(dir string, logger *logrus.Entry) *Outbox {
	return &Outbox{dir: dir, logger: logger, now: time.Now}
}

func (o *Outbox) Send(ctx context.Context, msg *mail.Message) error {
	if err := os.MkdirAll(o.dir, 0o755); err != nil {
		return fmt.Errorf("error creating outbox: %w", err)
	}

	o.mu.Lock()
	o.seq++
	seq := o.seq
	o.mu.Unlock()

	base := fmt.Sprintf("%s_%03d_%s", o.now().Format("20060102-150405"), seq, unsafeFileChars.ReplaceAllString(msg.Subject, "_"))

	var preview strings.Builder
	fmt.Fprintf(&preview, "<!-- To: %s -->\n", html.EscapeString(strings.Join(msg.To, "; ")))
	fmt.Fprintf(&preview, "<!-- Cc: %s -->\n", html.EscapeString(strings.Join(msg.Cc, "; ")))
	fmt.Fprintf(&preview, "<!-- Subject: %s -->\n", html.EscapeString(msg.Subject))
	preview.WriteString(msg.HTMLBody)

	path := filepath.Join(o.dir, base+".html")
	if err := os.WriteFile(path, []byte(preview.String()), 0o644); err != nil {
		return fmt.Errorf("error writing outbox preview: %w", err)
	}
	for _, a := range msg.Attachments {
		name := base + "_" + unsafeFileChars.ReplaceAllString(a.Name, "_")
		if err := os.WriteFile(filepath.Join(o.dir, name), a.Data, 0o644); err != nil {
			return fmt.Errorf("error writing outbox attachment: %w", err)
		}
	}

	o.logger.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
		"path":    path,
	}).Info("Prepared email in outbox")
	return nil
}
