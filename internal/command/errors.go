package command

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/flonle/memora/internal/resp"
)

// ErrMissingKey is returned when a command that requires a key argument
// did not receive one.
var ErrMissingKey = errors.New("missing key")

// ErrMissingValue is returned when SET did not receive a value argument.
var ErrMissingValue = errors.New("missing value")

// ErrMissingExpiry is returned when an expiry keyword (EX/PX/EXAT/PXAT)
// was given without a following value.
var ErrMissingExpiry = errors.New("missing expiry")

// ErrInvalidCommand is returned when the incoming value is not a
// well-formed command array at all.
var ErrInvalidCommand = errors.New("invalid command")

// UnknownCommandError reports an unrecognized command name.
type UnknownCommandError struct {
	Name string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command %q", e.Name)
}

// UnknownSectionError reports an INFO section this server does not serve.
type UnknownSectionError struct {
	Section string
}

func (e *UnknownSectionError) Error() string {
	return fmt.Sprintf("unknown section %q", e.Section)
}

// InvalidArgumentError carries the offending RESP value so a caller can
// report it verbatim in a diagnostic.
type InvalidArgumentError struct {
	Value resp.Value
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument: %+v", e.Value)
}

func invalidArgument(v resp.Value) error {
	return errors.WithStack(&InvalidArgumentError{Value: v})
}

func unknownCommand(name string) error {
	return errors.WithStack(&UnknownCommandError{Name: name})
}

// UnknownSection reports that section is not one this server serves via
// INFO. Exported because the actor, not the parser, is what discovers
// this: INFO's section argument is only validated against the set of
// known sections once execution reaches the actor.
func UnknownSection(section string) error {
	return errors.WithStack(&UnknownSectionError{Section: section})
}
