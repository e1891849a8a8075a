package resp

import "strconv"

const crlf = "\r\n"

// Encode appends the wire representation of v to buf and returns the
// extended slice. Encoding is total: it cannot fail on any Value that
// was constructed through this package's constructors.
func Encode(buf []byte, v Value) []byte {
	switch v.Kind {
	case KindArray:
		buf = append(buf, '*')
		buf = strconv.AppendInt(buf, int64(len(v.Elems)), 10)
		buf = append(buf, crlf...)
		for _, elem := range v.Elems {
			buf = Encode(buf, elem)
		}
		return buf

	case KindBulk:
		if v.Null {
			return append(buf, "$-1\r\n"...)
		}
		buf = append(buf, '$')
		buf = strconv.AppendInt(buf, int64(len(v.Str)), 10)
		buf = append(buf, crlf...)
		buf = append(buf, v.Str...)
		return append(buf, crlf...)

	case KindSimple:
		buf = append(buf, '+')
		buf = append(buf, v.Str...)
		return append(buf, crlf...)

	case KindInteger:
		buf = append(buf, ':')
		buf = strconv.AppendInt(buf, v.Int, 10)
		return append(buf, crlf...)

	case KindError:
		buf = append(buf, '-')
		buf = append(buf, v.Str...)
		return append(buf, crlf...)

	default:
		return buf
	}
}

// Bytes is a convenience wrapper around Encode for a single value.
func Bytes(v Value) []byte {
	return Encode(nil, v)
}
