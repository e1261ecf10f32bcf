package processor

import "fmt"

// Status is the per-image conversion state:
// pending -> converting -> done | error.
type Status int

const (
	StatusPending Status = iota
	StatusConverting
	StatusDone
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusConverting:
		return "converting"
	case StatusDone:
		return "done"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusError
}

// Advance returns the next status, or an error if the move is not allowed.
func (s Status) Advance(to Status) (Status, error) {
	switch {
	case s == StatusPending && to == StatusConverting:
	case s == StatusConverting && to.Terminal():
	default:
		return s, fmt.Errorf("invalid status transition %s -> %s", s, to)
	}
	return to, nil
}
