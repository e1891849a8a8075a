package resp

import (
	"strconv"

	"github.com/pkg/errors"
)

// Parse attempts to parse a single Value from the front of buf.
//
// On success it returns the parsed Value and the number of bytes
// consumed from buf; buf itself is never modified, and the returned
// Value holds its own copies of any string data. On a strict prefix
// of a valid encoding it returns ErrIncomplete and consumes nothing —
// the caller is expected to read more bytes and call Parse again from
// the same offset. Any other error is a hard tokenization or structural
// failure and the caller should treat the connection as unrecoverable.
func Parse(buf []byte) (Value, int, error) {
	v, pos, err := parseOne(buf, 0)
	if err != nil {
		return Value{}, 0, err
	}
	return v, pos, nil
}

func parseOne(buf []byte, pos int) (Value, int, error) {
	if pos >= len(buf) {
		return Value{}, pos, ErrIncomplete
	}

	switch buf[pos] {
	case '*':
		return parseArray(buf, pos+1)
	case '$':
		return parseBulk(buf, pos+1)
	case '+':
		return parseSimple(buf, pos+1)
	case '-':
		return parseError(buf, pos+1)
	case ':':
		return parseInteger(buf, pos+1)
	default:
		return Value{}, pos, errors.Wrapf(ErrInvalidToken, "unexpected sigil %q", buf[pos])
	}
}

func parseArray(buf []byte, pos int) (Value, int, error) {
	length, pos, err := readLength(buf, pos)
	if err != nil {
		return Value{}, pos, err
	}
	if length < 0 {
		return Value{}, pos, invalidLength(length)
	}

	var elems []Value
	if length > 0 {
		elems = make([]Value, 0, length)
	}
	for i := int64(0); i < length; i++ {
		var v Value
		v, pos, err = parseOne(buf, pos)
		if err != nil {
			return Value{}, pos, err
		}
		elems = append(elems, v)
	}

	return Value{Kind: KindArray, Elems: elems}, pos, nil
}

func parseBulk(buf []byte, pos int) (Value, int, error) {
	length, pos, err := readLength(buf, pos)
	if err != nil {
		return Value{}, pos, err
	}

	if length == -1 {
		return Value{Kind: KindBulk, Null: true}, pos, nil
	}
	if length < 0 {
		return Value{}, pos, invalidLength(length)
	}

	end := pos + int(length)
	if end+2 > len(buf) {
		return Value{}, pos, ErrIncomplete
	}
	if buf[end] != '\r' || buf[end+1] != '\n' {
		return Value{}, pos, errors.Wrap(ErrInvalidToken, "bulk string missing CRLF terminator")
	}

	return Value{Kind: KindBulk, Str: string(buf[pos:end])}, end + 2, nil
}

func parseSimple(buf []byte, pos int) (Value, int, error) {
	line, next, ok := readLine(buf, pos)
	if !ok {
		return Value{}, pos, ErrIncomplete
	}
	return Value{Kind: KindSimple, Str: string(line)}, next, nil
}

func parseError(buf []byte, pos int) (Value, int, error) {
	line, next, ok := readLine(buf, pos)
	if !ok {
		return Value{}, pos, ErrIncomplete
	}
	return Value{Kind: KindError, Str: string(line)}, next, nil
}

func parseInteger(buf []byte, pos int) (Value, int, error) {
	n, next, err := readInt(buf, pos)
	if err != nil {
		return Value{}, pos, err
	}
	return Value{Kind: KindInteger, Int: n}, next, nil
}

// readLength reads a signed integer length token followed by CRLF, the
// shape shared by '*' and '$' headers.
func readLength(buf []byte, pos int) (int64, int, error) {
	return readInt(buf, pos)
}

func readInt(buf []byte, pos int) (int64, int, error) {
	line, next, ok := readLine(buf, pos)
	if !ok {
		return 0, pos, ErrIncomplete
	}
	if !isValidIntLiteral(line) {
		return 0, pos, errors.Wrapf(ErrInvalidToken, "invalid integer literal %q", line)
	}
	n, err := strconv.ParseInt(bytesToStr(line), 10, 64)
	if err != nil {
		return 0, pos, errors.Wrapf(ErrInvalidToken, "invalid integer literal %q", line)
	}
	return n, next, nil
}

// isValidIntLiteral enforces the lexical rule for the signed integer
// token: an optional leading '-', then either a single "0" or a run of
// digits with no leading zero.
func isValidIntLiteral(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	i := 0
	if b[0] == '-' {
		i = 1
	}
	if i >= len(b) {
		return false
	}
	for _, c := range b[i:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	if b[i] == '0' && len(b)-i > 1 {
		return false
	}
	return true
}

// readLine returns the bytes preceding the next CRLF starting at pos,
// and the offset just past it. ok is false if no CRLF is present yet.
func readLine(buf []byte, pos int) ([]byte, int, bool) {
	for i := pos; i+1 < len(buf); i++ {
		if buf[i] == '\r' && buf[i+1] == '\n' {
			return buf[pos:i], i + 2, true
		}
	}
	return nil, pos, false
}
