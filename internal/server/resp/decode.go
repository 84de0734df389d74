package resp

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

// Protocol limits to prevent a single frame from claiming unbounded memory.
const (
	// MaxArrayLen limits the number of elements in a RESP array.
	// Commands have a handful of arguments; multi-key DEL/EXISTS stay
	// far below this.
	MaxArrayLen = 1024

	// MaxBulkLen limits the size of a single bulk string (512KB).
	MaxBulkLen = 512 * 1024

	// MaxInlineLen limits inline command line length (4KB).
	MaxInlineLen = 4 * 1024
)

var (
	// ErrIncomplete reports that the buffer holds less than one
	// complete frame. Not a failure: retain the buffer, read more
	// bytes, retry.
	ErrIncomplete = errors.New("resp: incomplete frame")

	// ErrProtocol reports malformed wire bytes. Connection-fatal.
	ErrProtocol = errors.New("resp: protocol error")

	// ErrLimitExceeded reports a frame breaching a protocol limit.
	// Connection-fatal.
	ErrLimitExceeded = errors.New("resp: limit exceeded")
)

// Decode decodes one complete RESP value from the front of buf.
//
// It returns the value and the number of bytes consumed. When buf
// holds less than one full frame it returns ErrIncomplete and the
// caller must retry with more data; no bytes are consumed in that
// case. Malformed input yields an error wrapping ErrProtocol or
// ErrLimitExceeded.
func Decode(buf []byte) (Value, int, error) {
	if len(buf) == 0 {
		return Value{}, 0, ErrIncomplete
	}

	switch Type(buf[0]) {
	case SimpleString, Error:
		return decodeLine(buf)
	case Integer:
		return decodeInteger(buf)
	case BulkString:
		return decodeBulk(buf)
	case Array:
		return decodeArray(buf)
	default:
		return Value{}, 0, fmt.Errorf("%w: unknown type prefix %q", ErrProtocol, buf[0])
	}
}

// DecodeCommand decodes one client request from the front of buf into
// its argument form. Requests are normally arrays of bulk strings, but
// inline commands ("PING\r\n") are accepted too since some clients use
// them. Empty requests (empty inline lines, zero-length arrays) yield
// nil args with bytes still consumed.
func DecodeCommand(buf []byte) ([][]byte, int, error) {
	if len(buf) == 0 {
		return nil, 0, ErrIncomplete
	}

	if Type(buf[0]) == Array {
		v, n, err := Decode(buf)
		if err != nil {
			return nil, 0, err
		}
		args, err := Command(v)
		if err != nil {
			return nil, 0, err
		}
		return args, n, nil
	}

	// Inline command: a single line of whitespace-separated words.
	line, n, err := readLine(buf, MaxInlineLen)
	if err != nil {
		return nil, 0, err
	}
	fields := bytes.Fields(line)
	if len(fields) == 0 {
		return nil, n, nil
	}
	args := make([][]byte, 0, len(fields))
	for _, f := range fields {
		arg := make([]byte, len(f))
		copy(arg, f)
		args = append(args, arg)
	}
	return args, n, nil
}

// Command reinterprets a decoded array-of-bulk-strings value as command
// arguments. The first element is the command name. Null and empty
// arrays carry no command and yield nil args.
func Command(v Value) ([][]byte, error) {
	if v.Type != Array {
		return nil, fmt.Errorf("%w: expected array, got %s", ErrProtocol, v.Type)
	}
	if v.Null || len(v.Array) == 0 {
		return nil, nil
	}

	args := make([][]byte, 0, len(v.Array))
	for i, elem := range v.Array {
		switch elem.Type {
		case BulkString:
			if elem.Null {
				return nil, fmt.Errorf("%w: null bulk string at index %d", ErrProtocol, i)
			}
			args = append(args, elem.Bulk)
		case SimpleString:
			// Best-effort: some clients send simple strings as args.
			args = append(args, []byte(elem.Str))
		default:
			return nil, fmt.Errorf("%w: expected bulk string at index %d, got %s", ErrProtocol, i, elem.Type)
		}
	}
	return args, nil
}

func decodeLine(buf []byte) (Value, int, error) {
	line, n, err := readLine(buf, MaxInlineLen)
	if err != nil {
		return Value{}, 0, err
	}
	return Value{Type: Type(buf[0]), Str: string(line[1:])}, n, nil
}

func decodeInteger(buf []byte) (Value, int, error) {
	line, n, err := readLine(buf, 64)
	if err != nil {
		return Value{}, 0, err
	}
	v, err := strconv.ParseInt(string(line[1:]), 10, 64)
	if err != nil {
		return Value{}, 0, fmt.Errorf("%w: invalid integer %q", ErrProtocol, line[1:])
	}
	return NewInteger(v), n, nil
}

func decodeBulk(buf []byte) (Value, int, error) {
	line, n, err := readLine(buf, 64)
	if err != nil {
		return Value{}, 0, err
	}
	size, err := strconv.Atoi(string(line[1:]))
	if err != nil {
		return Value{}, 0, fmt.Errorf("%w: invalid bulk length %q", ErrProtocol, line[1:])
	}
	if size == -1 {
		return NewNullBulk(), n, nil
	}
	if size < 0 {
		return Value{}, 0, fmt.Errorf("%w: negative bulk length %d", ErrProtocol, size)
	}
	if size > MaxBulkLen {
		return Value{}, 0, fmt.Errorf("%w: bulk length %d exceeds limit %d", ErrLimitExceeded, size, MaxBulkLen)
	}

	// Payload plus trailing CRLF.
	if len(buf) < n+size+2 {
		return Value{}, 0, ErrIncomplete
	}
	payload := buf[n : n+size]
	if buf[n+size] != '\r' || buf[n+size+1] != '\n' {
		return Value{}, 0, fmt.Errorf("%w: bulk string missing CRLF terminator", ErrProtocol)
	}

	bulk := make([]byte, size)
	copy(bulk, payload)
	return NewBulk(bulk), n + size + 2, nil
}

func decodeArray(buf []byte) (Value, int, error) {
	line, n, err := readLine(buf, 64)
	if err != nil {
		return Value{}, 0, err
	}
	count, err := strconv.Atoi(string(line[1:]))
	if err != nil {
		return Value{}, 0, fmt.Errorf("%w: invalid array length %q", ErrProtocol, line[1:])
	}
	if count == -1 {
		return NewNullArray(), n, nil
	}
	if count < 0 {
		return Value{}, 0, fmt.Errorf("%w: negative array length %d", ErrProtocol, count)
	}
	if count > MaxArrayLen {
		return Value{}, 0, fmt.Errorf("%w: array length %d exceeds limit %d", ErrLimitExceeded, count, MaxArrayLen)
	}

	elems := make([]Value, 0, count)
	consumed := n
	for i := 0; i < count; i++ {
		elem, m, err := Decode(buf[consumed:])
		if err != nil {
			return Value{}, 0, err
		}
		elems = append(elems, elem)
		consumed += m
	}
	return NewArray(elems...), consumed, nil
}

// readLine returns one CRLF-terminated line from the front of buf,
// excluding the terminator, and the bytes consumed including it.
func readLine(buf []byte, maxLen int) ([]byte, int, error) {
	idx := bytes.IndexByte(buf, '\n')
	if idx == -1 {
		if len(buf) > maxLen {
			return nil, 0, fmt.Errorf("%w: line length exceeds limit %d", ErrLimitExceeded, maxLen)
		}
		return nil, 0, ErrIncomplete
	}
	if idx > maxLen {
		return nil, 0, fmt.Errorf("%w: line length exceeds limit %d", ErrLimitExceeded, maxLen)
	}
	if idx == 0 || buf[idx-1] != '\r' {
		return nil, 0, fmt.Errorf("%w: missing CRLF", ErrProtocol)
	}
	return buf[:idx-1], idx + 1, nil
}
