package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/nao1215/estatewatch/internal/model"
)

// Notifier delivers a rendered notification.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// WriterNotifier writes notifications to an io.Writer instead of sending
// them. It is used for dry runs.
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterNotifier creates a WriterNotifier writing to w.
func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

// Notify writes the subject and the plain-text body.
func (n *WriterNotifier) Notify(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", model.ErrNotify, err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if _, err := fmt.Fprintf(n.w, "Subject: %s\n\n%s", msg.Subject, msg.TextBody); err != nil {
		return fmt.Errorf("%w: failed to write notification: %w", model.ErrNotify, err)
	}
	return nil
}

// Multi delivers to every notifier in order. All notifiers are tried;
// the returned error joins every failure.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
