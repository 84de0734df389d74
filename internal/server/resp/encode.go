package resp

import "strconv"

var crlf = []byte("\r\n")

// Encode encodes a value into its RESP2 wire form.
//
// Encoding is total and deterministic, and is the inverse of Decode
// for every value the command table produces.
func Encode(v Value) []byte {
	return AppendEncode(nil, v)
}

// AppendEncode appends the RESP2 wire form of v to dst and returns
// the extended slice.
func AppendEncode(dst []byte, v Value) []byte {
	switch v.Type {
	case SimpleString:
		dst = append(dst, '+')
		dst = append(dst, v.Str...)
		return append(dst, crlf...)
	case Error:
		dst = append(dst, '-')
		dst = append(dst, v.Str...)
		return append(dst, crlf...)
	case Integer:
		dst = append(dst, ':')
		dst = strconv.AppendInt(dst, v.Int, 10)
		return append(dst, crlf...)
	case BulkString:
		if v.Null {
			return append(dst, "$-1\r\n"...)
		}
		dst = append(dst, '$')
		dst = strconv.AppendInt(dst, int64(len(v.Bulk)), 10)
		dst = append(dst, crlf...)
		dst = append(dst, v.Bulk...)
		return append(dst, crlf...)
	case Array:
		if v.Null {
			return append(dst, "*-1\r\n"...)
		}
		dst = append(dst, '*')
		dst = strconv.AppendInt(dst, int64(len(v.Array)), 10)
		dst = append(dst, crlf...)
		for _, elem := range v.Array {
			dst = AppendEncode(dst, elem)
		}
		return dst
	default:
		// Unreachable for values built via the constructors; encode
		// nothing rather than corrupt the stream.
		return dst
	}
}
