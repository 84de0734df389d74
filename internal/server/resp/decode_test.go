package resp

import (
	"errors"
	"strings"
	"testing"
)

// ============================================================
// Decode Tests - Complete Frames
// ============================================================

func TestDecode_CompleteFrames(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Value
	}{
		{
			name:  "simple string",
			input: "+OK\r\n",
			want:  NewSimpleString("OK"),
		},
		{
			name:  "empty simple string",
			input: "+\r\n",
			want:  NewSimpleString(""),
		},
		{
			name:  "error",
			input: "-ERR unknown command\r\n",
			want:  NewError("ERR unknown command"),
		},
		{
			name:  "integer",
			input: ":1000\r\n",
			want:  NewInteger(1000),
		},
		{
			name:  "negative integer",
			input: ":-2\r\n",
			want:  NewInteger(-2),
		},
		{
			name:  "bulk string",
			input: "$5\r\nhello\r\n",
			want:  NewBulkString("hello"),
		},
		{
			name:  "empty bulk string",
			input: "$0\r\n\r\n",
			want:  NewBulkString(""),
		},
		{
			name:  "bulk string with CRLF payload",
			input: "$7\r\na\r\nb\r\nc\r\n",
			want:  NewBulkString("a\r\nb\r\nc"),
		},
		{
			name:  "null bulk string",
			input: "$-1\r\n",
			want:  NewNullBulk(),
		},
		{
			name:  "array",
			input: "*2\r\n$3\r\nGET\r\n$3\r\nfoo\r\n",
			want:  NewArray(NewBulkString("GET"), NewBulkString("foo")),
		},
		{
			name:  "empty array",
			input: "*0\r\n",
			want:  NewArray(),
		},
		{
			name:  "null array",
			input: "*-1\r\n",
			want:  NewNullArray(),
		},
		{
			name:  "nested array",
			input: "*2\r\n*1\r\n:1\r\n+PONG\r\n",
			want:  NewArray(NewArray(NewInteger(1)), NewSimpleString("PONG")),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n, err := Decode([]byte(tt.input))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if n != len(tt.input) {
				t.Errorf("consumed = %d, want %d", n, len(tt.input))
			}
			if !got.Equal(tt.want) {
				t.Errorf("Decode() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecode_TrailingBytesUntouched(t *testing.T) {
	input := []byte("+PONG\r\n:42\r\n")

	v, n, err := Decode(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.Equal(NewSimpleString("PONG")) {
		t.Errorf("first value = %+v", v)
	}
	if n != 7 {
		t.Fatalf("consumed = %d, want 7", n)
	}

	v, n, err = Decode(input[n:])
	if err != nil {
		t.Fatalf("unexpected error on second frame: %v", err)
	}
	if !v.Equal(NewInteger(42)) {
		t.Errorf("second value = %+v", v)
	}
	if n != 5 {
		t.Errorf("consumed = %d, want 5", n)
	}
}

// ============================================================
// Decode Tests - Incremental Feeding
// ============================================================

func TestDecode_IncompleteForEveryProperPrefix(t *testing.T) {
	frames := []string{
		"+PONG\r\n",
		":123\r\n",
		"$5\r\nhello\r\n",
		"$-1\r\n",
		"*3\r\n$3\r\nSET\r\n$3\r\nfoo\r\n$3\r\nbar\r\n",
	}

	for _, frame := range frames {
		t.Run(frame, func(t *testing.T) {
			buf := []byte(frame)
			for i := 0; i < len(buf); i++ {
				_, n, err := Decode(buf[:i])
				if !errors.Is(err, ErrIncomplete) {
					t.Fatalf("prefix %d: err = %v, want ErrIncomplete", i, err)
				}
				if n != 0 {
					t.Fatalf("prefix %d: consumed %d bytes", i, n)
				}
			}

			v, n, err := Decode(buf)
			if err != nil {
				t.Fatalf("full frame: unexpected error %v", err)
			}
			if n != len(buf) {
				t.Fatalf("full frame: consumed = %d, want %d", n, len(buf))
			}
			_ = v
		})
	}
}

// ============================================================
// Decode Tests - Protocol Errors
// ============================================================

func TestDecode_ProtocolErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{
			name:    "unknown type prefix",
			input:   "?what\r\n",
			wantErr: ErrProtocol,
		},
		{
			name:    "non-numeric bulk length",
			input:   "$abc\r\n",
			wantErr: ErrProtocol,
		},
		{
			name:    "negative bulk length other than -1",
			input:   "$-2\r\n",
			wantErr: ErrProtocol,
		},
		{
			name:    "non-numeric array count",
			input:   "*x\r\n",
			wantErr: ErrProtocol,
		},
		{
			name:    "negative array count other than -1",
			input:   "*-3\r\n",
			wantErr: ErrProtocol,
		},
		{
			name:    "non-numeric integer",
			input:   ":12a\r\n",
			wantErr: ErrProtocol,
		},
		{
			name:    "bulk missing CRLF terminator",
			input:   "$3\r\nfooXY",
			wantErr: ErrProtocol,
		},
		{
			name:    "line terminated by bare LF",
			input:   "+OK\n",
			wantErr: ErrProtocol,
		},
		{
			name:    "bulk length over limit",
			input:   "$9999999\r\n",
			wantErr: ErrLimitExceeded,
		},
		{
			name:    "array count over limit",
			input:   "*99999\r\n",
			wantErr: ErrLimitExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode([]byte(tt.input))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// ============================================================
// DecodeCommand Tests
// ============================================================

func TestDecodeCommand_Array(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "simple PING command",
			input: "*1\r\n$4\r\nPING\r\n",
			want:  []string{"PING"},
		},
		{
			name:  "GET command",
			input: "*2\r\n$3\r\nGET\r\n$6\r\nmykey1\r\n",
			want:  []string{"GET", "mykey1"},
		},
		{
			name:  "SET command with value",
			input: "*3\r\n$3\r\nSET\r\n$5\r\nmykey\r\n$7\r\nmyvalue\r\n",
			want:  []string{"SET", "mykey", "myvalue"},
		},
		{
			name:  "empty array",
			input: "*0\r\n",
			want:  nil,
		},
		{
			name:  "null array",
			input: "*-1\r\n",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n, err := DecodeCommand([]byte(tt.input))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if n != len(tt.input) {
				t.Errorf("consumed = %d, want %d", n, len(tt.input))
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i, want := range tt.want {
				if string(got[i]) != want {
					t.Errorf("arg[%d] = %q, want %q", i, got[i], want)
				}
			}
		})
	}
}

func TestDecodeCommand_Inline(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "simple PING",
			input: "PING\r\n",
			want:  []string{"PING"},
		},
		{
			name:  "inline with args",
			input: "GET mykey\r\n",
			want:  []string{"GET", "mykey"},
		},
		{
			name:  "empty line",
			input: "\r\n",
			want:  nil,
		},
		{
			name:  "whitespace only",
			input: "   \r\n",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n, err := DecodeCommand([]byte(tt.input))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if n != len(tt.input) {
				t.Errorf("consumed = %d, want %d", n, len(tt.input))
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i, want := range tt.want {
				if string(got[i]) != want {
					t.Errorf("arg[%d] = %q, want %q", i, got[i], want)
				}
			}
		})
	}
}

func TestDecodeCommand_Pipelined(t *testing.T) {
	input := []byte("*1\r\n$4\r\nPING\r\n*2\r\n$4\r\nECHO\r\n$2\r\nhi\r\nGET inline\r\n")

	var all [][]string
	for len(input) > 0 {
		args, n, err := DecodeCommand(input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		cmd := make([]string, 0, len(args))
		for _, a := range args {
			cmd = append(cmd, string(a))
		}
		all = append(all, cmd)
		input = input[n:]
	}

	want := [][]string{
		{"PING"},
		{"ECHO", "hi"},
		{"GET", "inline"},
	}
	if len(all) != len(want) {
		t.Fatalf("decoded %d commands, want %d", len(all), len(want))
	}
	for i := range want {
		if strings.Join(all[i], " ") != strings.Join(want[i], " ") {
			t.Errorf("command[%d] = %v, want %v", i, all[i], want[i])
		}
	}
}

func TestDecodeCommand_InlineOverLimit(t *testing.T) {
	input := append([]byte(strings.Repeat("a", MaxInlineLen+10)), "\r\n"...)

	_, _, err := DecodeCommand(input)
	if !errors.Is(err, ErrLimitExceeded) {
		t.Errorf("err = %v, want ErrLimitExceeded", err)
	}
}

func TestCommand_RejectsNonBulkElements(t *testing.T) {
	_, err := Command(NewArray(NewInteger(1)))
	if !errors.Is(err, ErrProtocol) {
		t.Errorf("err = %v, want ErrProtocol", err)
	}

	_, err = Command(NewArray(NewBulkString("GET"), NewNullBulk()))
	if !errors.Is(err, ErrProtocol) {
		t.Errorf("null bulk arg: err = %v, want ErrProtocol", err)
	}
}

func TestCommand_RejectsNonArray(t *testing.T) {
	_, err := Command(NewInteger(3))
	if !errors.Is(err, ErrProtocol) {
		t.Errorf("err = %v, want ErrProtocol", err)
	}
}
