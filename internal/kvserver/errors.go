package kvserver

import (
	"github.com/pkg/errors"

	"github.com/flonle/memora/internal/command"
)

// errInvalidExpiry is returned when a SET's expiry resolves to no
// representable instant (an out-of-range relative delta or absolute
// timestamp).
var errInvalidExpiry = errors.New("invalid expiry time")

func errUnhandledCommand(kind command.Kind) error {
	return errors.Errorf("actor does not handle command kind %d; PING/ECHO are answered by the session", kind)
}
