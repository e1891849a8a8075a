// Package command lifts a parsed RESP array into a typed, validated
// command.
package command

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/flonle/memora/internal/resp"
)

// Kind discriminates the Command variants.
type Kind int

const (
	KindPing Kind = iota
	KindEcho
	KindSet
	KindGet
	KindInfo
)

// TimeUnit is the unit an expiry's numeric value is expressed in.
type TimeUnit int

const (
	UnitSeconds TimeUnit = iota
	UnitMillis
)

// Time is a raw, not-yet-resolved expiry magnitude: so many seconds or
// milliseconds, interpreted as relative or absolute by Expiry.Kind.
type Time struct {
	Unit  TimeUnit
	Value uint64
}

func (t Time) duration() (time.Duration, bool) {
	mult := int64(time.Second)
	if t.Unit == UnitMillis {
		mult = int64(time.Millisecond)
	}
	if t.Value > uint64(math.MaxInt64)/uint64(mult) {
		return 0, false
	}
	return time.Duration(t.Value) * time.Duration(mult), true
}

// ExpiryKind selects whether a Time is relative to now or an absolute
// Unix timestamp.
type ExpiryKind int

const (
	ExpiryRelative ExpiryKind = iota
	ExpiryAbsolute
)

// Expiry is SET's optional EX/PX/EXAT/PXAT argument.
type Expiry struct {
	Kind ExpiryKind
	Time Time
}

// IntoUTC resolves e against the wall-clock instant now, returning false
// if the delta or timestamp is out of representable range.
func (e Expiry) IntoUTC(now time.Time) (time.Time, bool) {
	switch e.Kind {
	case ExpiryRelative:
		d, ok := e.Time.duration()
		if !ok {
			return time.Time{}, false
		}
		return now.Add(d), true

	case ExpiryAbsolute:
		if e.Time.Value > uint64(math.MaxInt64) {
			return time.Time{}, false
		}
		v := int64(e.Time.Value)
		if e.Time.Unit == UnitSeconds {
			return time.Unix(v, 0).UTC(), true
		}
		return time.Unix(v/1000, (v%1000)*int64(time.Millisecond)).UTC(), true

	default:
		return time.Time{}, false
	}
}

// SetCommand is the parsed form of SET key value [EX|PX|EXAT|PXAT n].
type SetCommand struct {
	Key    string
	Value  string
	Expiry *Expiry
}

// GetCommand is the parsed form of GET key.
type GetCommand struct {
	Key string
}

// InfoCommand is the parsed form of INFO [section].
type InfoCommand struct {
	Section *string
}

// Command is the closed set of commands this server understands.
type Command struct {
	Kind Kind

	// Ping carries PING's optional message; nil means no argument given.
	Ping *string
	// Echo carries ECHO's required message.
	Echo string

	Set  SetCommand
	Get  GetCommand
	Info InfoCommand
}

// Parse converts a RESP value into a typed Command. v must be an Array
// whose first element is a command-name string; arguments are pulled
// positionally from the remainder. Command names and expiry keywords
// are matched case-insensitively (ASCII).
func Parse(v resp.Value) (Command, error) {
	if v.Kind != resp.KindArray {
		return Command{}, ErrInvalidCommand
	}

	elems := v.Elems
	if len(elems) == 0 {
		return Command{}, ErrInvalidCommand
	}

	name, ok := elems[0].AsString()
	if !ok {
		return Command{}, ErrInvalidCommand
	}
	args := elems[1:]

	switch {
	case strings.EqualFold(name, "ping"):
		return parsePing(args)
	case strings.EqualFold(name, "echo"):
		return parseEcho(args)
	case strings.EqualFold(name, "set"):
		return parseSet(args)
	case strings.EqualFold(name, "get"):
		return parseGet(args)
	case strings.EqualFold(name, "info"):
		return parseInfo(args)
	default:
		return Command{}, unknownCommand(name)
	}
}

func parsePing(args []resp.Value) (Command, error) {
	if len(args) == 0 {
		return Command{Kind: KindPing}, nil
	}
	msg, ok := args[0].AsString()
	if !ok {
		return Command{}, invalidArgument(args[0])
	}
	return Command{Kind: KindPing, Ping: &msg}, nil
}

func parseEcho(args []resp.Value) (Command, error) {
	if len(args) == 0 {
		return Command{}, ErrInvalidCommand
	}
	msg, ok := args[0].AsString()
	if !ok {
		return Command{}, invalidArgument(args[0])
	}
	return Command{Kind: KindEcho, Echo: msg}, nil
}

func parseSet(args []resp.Value) (Command, error) {
	if len(args) == 0 {
		return Command{}, ErrMissingKey
	}
	key, ok := args[0].AsString()
	if !ok {
		return Command{}, invalidArgument(args[0])
	}

	if len(args) == 1 {
		return Command{}, ErrMissingValue
	}
	value, ok := args[1].AsString()
	if !ok {
		return Command{}, invalidArgument(args[1])
	}

	set := SetCommand{Key: key, Value: value}

	if len(args) > 2 {
		expiryKeyword, ok := args[2].AsString()
		if !ok {
			return Command{}, invalidArgument(args[2])
		}
		if !isKnownExpiryKeyword(expiryKeyword) {
			return Command{}, invalidArgument(args[2])
		}

		if len(args) < 4 {
			return Command{}, ErrMissingExpiry
		}
		rawExpiry, ok := args[3].AsString()
		if !ok {
			return Command{}, invalidArgument(args[3])
		}

		n, err := strconv.ParseUint(rawExpiry, 10, 64)
		if err != nil {
			return Command{}, invalidArgument(args[3])
		}

		expiry, _ := parseExpiryKeyword(expiryKeyword, n)
		set.Expiry = &expiry
	}

	return Command{Kind: KindSet, Set: set}, nil
}

func isKnownExpiryKeyword(keyword string) bool {
	_, ok := parseExpiryKeyword(keyword, 0)
	return ok
}

func parseExpiryKeyword(keyword string, n uint64) (Expiry, bool) {
	switch {
	case strings.EqualFold(keyword, "ex"):
		return Expiry{Kind: ExpiryRelative, Time: Time{Unit: UnitSeconds, Value: n}}, true
	case strings.EqualFold(keyword, "px"):
		return Expiry{Kind: ExpiryRelative, Time: Time{Unit: UnitMillis, Value: n}}, true
	case strings.EqualFold(keyword, "exat"):
		return Expiry{Kind: ExpiryAbsolute, Time: Time{Unit: UnitSeconds, Value: n}}, true
	case strings.EqualFold(keyword, "pxat"):
		return Expiry{Kind: ExpiryAbsolute, Time: Time{Unit: UnitMillis, Value: n}}, true
	default:
		return Expiry{}, false
	}
}

func parseGet(args []resp.Value) (Command, error) {
	if len(args) == 0 {
		return Command{}, ErrMissingKey
	}
	key, ok := args[0].AsString()
	if !ok {
		return Command{}, invalidArgument(args[0])
	}
	return Command{Kind: KindGet, Get: GetCommand{Key: key}}, nil
}

func parseInfo(args []resp.Value) (Command, error) {
	if len(args) == 0 {
		return Command{Kind: KindInfo}, nil
	}
	section, ok := args[0].AsString()
	if !ok {
		return Command{}, invalidArgument(args[0])
	}
	return Command{Kind: KindInfo, Info: InfoCommand{Section: &section}}, nil
}
