package browser

import (
	"context"
	"errors"
	"time"

	"github.com/go-rod/rod"
)

// Status is the outcome of waiting for an element.
type Status int

const (
	Found Status = iota
	NotFound
	Timeout
	Failed
)

func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case NotFound:
		return "not found"
	case Timeout:
		return "timeout"
	default:
		return "failed"
	}
}

// Lookup is the explicit result of a wait. Absence is reported through Status,
// not as an error; Err carries the cause for anything other than Found.
type Lookup struct {
	Status  Status
	Element Element
	Err     error
}

// Found reports whether the element is available.
func (l Lookup) Found() bool {
	return l.Status == Found && l.Element != nil
}

// Element is a located page element.
type Element interface {
	Click(ctx context.Context) error
	Clear(ctx context.Context) error
	Type(ctx context.Context, text string) error
	// Submit presses Enter in the element.
	Submit(ctx context.Context) error
	// Find waits up to timeout for a descendant matching loc.
	Find(ctx context.Context, loc Locator, timeout time.Duration) Lookup
}

// classify turns a rod error into a Lookup. parent is the caller's context, which tells
// an elapsed wait apart from a cancelled run. Page-level waits retry until their
// deadline, so NotFound only comes from Element.Find, which does not wait.
func classify(parent context.Context, err error) Lookup {
	var notFound *rod.ErrElementNotFound
	switch {
	case err == nil:
		return Lookup{Status: Failed, Err: errors.New("no element returned")}
	case errors.As(err, &notFound):
		return Lookup{Status: NotFound, Err: err}
	case parent.Err() != nil:
		return Lookup{Status: Failed, Err: parent.Err()}
	case errors.Is(err, context.DeadlineExceeded):
		return Lookup{Status: Timeout, Err: err}
	default:
		return Lookup{Status: Failed, Err: err}
	}
}
