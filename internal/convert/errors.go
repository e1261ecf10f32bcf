package convert

import "fmt"

// Kind classifies a per-image conversion failure.
type Kind int

const (
	KindDecode Kind = iota + 1
	KindContextUnavailable
	KindEncode
	KindCanceled // the batch was stopped while this image was in flight
)

func (k Kind) String() string {
	switch k {
	case KindDecode:
		return "decode error"
	case KindContextUnavailable:
		return "context unavailable"
	case KindEncode:
		return "encode error"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown error"
	}
}

// Error is returned by Convert for every failure.
type Error struct {
	Kind Kind
	Name string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Name, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by Kind, so errors.Is(err, &Error{Kind: KindEncode})
// works without a name.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Name == "" && t.Err == nil
}
