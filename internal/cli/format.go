package cli

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// ErrReported marks a command error that was already shown as a failure
// message; callers exit non-zero without printing it again.
var ErrReported = errors.New("error already reported")

type reportedError struct{ err error }

func (e *reportedError) Error() string   { return e.err.Error() }
func (e *reportedError) Unwrap() []error { return []error{e.err, ErrReported} }

// printNotifier shows mutation outcomes the way a toast would.
type printNotifier struct {
	out    io.Writer
	errOut io.Writer

	mu       sync.Mutex
	reported []error
}

func (n *printNotifier) Success(message string) {
	fmt.Fprintln(n.out, message)
}

func (n *printNotifier) Failure(message string, err error) {
	n.mu.Lock()
	n.reported = append(n.reported, err)
	n.mu.Unlock()
	fmt.Fprintf(n.errOut, "%s: %v\n", message, err)
}

// settle tags err with ErrReported when the notifier already printed it.
func (n *printNotifier) settle(err error) error {
	if err == nil {
		return nil
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, r := range n.reported {
		if errors.Is(err, r) {
			return &reportedError{err: err}
		}
	}
	return err
}

func ago(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

func dueDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.DateOnly)
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
