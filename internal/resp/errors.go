package resp

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrIncomplete signals that the buffer does not yet hold a full value.
// It is not a protocol error: the caller should read more bytes and
// retry from the same offset.
var ErrIncomplete = errors.New("resp: incomplete input")

// ErrInvalidToken signals a byte sequence that cannot be tokenized at
// all, or a token that is not valid where it was encountered.
var ErrInvalidToken = errors.New("resp: invalid token")

// InvalidLengthError reports an out-of-range bulk or array length.
type InvalidLengthError struct {
	Length int64
}

func (e *InvalidLengthError) Error() string {
	return fmt.Sprintf("resp: invalid length %d", e.Length)
}

func invalidLength(n int64) error {
	return errors.WithStack(&InvalidLengthError{Length: n})
}
