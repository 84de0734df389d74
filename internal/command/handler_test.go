package command

import (
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kevadb/keva-go/internal/server/resp"
	"github.com/kevadb/keva-go/internal/store"
)

// =============================================================================
// Helpers
// =============================================================================

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestHandler(t *testing.T) (*Handler, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	st := store.New(store.WithClock(clock.Now))
	return New(st), clock
}

func args(words ...string) [][]byte {
	out := make([][]byte, 0, len(words))
	for _, w := range words {
		out = append(out, []byte(w))
	}
	return out
}

func exec(t *testing.T, h *Handler, words ...string) resp.Value {
	t.Helper()
	reply, closeAfter := h.Execute(args(words...))
	if closeAfter {
		t.Fatalf("Execute(%v) requested connection close", words)
	}
	return reply
}

func wantEqual(t *testing.T, got, want resp.Value) {
	t.Helper()
	if !got.Equal(want) {
		t.Fatalf("reply = %+v, want %+v", got, want)
	}
}

func wantErrorContaining(t *testing.T, got resp.Value, substr string) {
	t.Helper()
	if got.Type != resp.Error {
		t.Fatalf("reply = %+v, want error containing %q", got, substr)
	}
	if !strings.Contains(got.Str, substr) {
		t.Fatalf("error = %q, want it to contain %q", got.Str, substr)
	}
}

// =============================================================================
// Connection-level commands
// =============================================================================

func TestPing(t *testing.T) {
	h, _ := newTestHandler(t)

	wantEqual(t, exec(t, h, "PING"), resp.NewSimpleString("PONG"))
	wantEqual(t, exec(t, h, "ping"), resp.NewSimpleString("PONG"))
	wantEqual(t, exec(t, h, "PING", "hello"), resp.NewBulkString("hello"))
	wantErrorContaining(t, exec(t, h, "PING", "a", "b"), "wrong number of arguments")
}

func TestEcho(t *testing.T) {
	h, _ := newTestHandler(t)

	wantEqual(t, exec(t, h, "ECHO", "hey"), resp.NewBulkString("hey"))
	wantEqual(t, exec(t, h, "ECHO", ""), resp.NewBulkString(""))
	wantErrorContaining(t, exec(t, h, "ECHO"), "wrong number of arguments")
	wantErrorContaining(t, exec(t, h, "ECHO", "a", "b"), "wrong number of arguments")
}

func TestQuit(t *testing.T) {
	h, _ := newTestHandler(t)

	reply, closeAfter := h.Execute(args("QUIT"))
	wantEqual(t, reply, resp.NewSimpleString("OK"))
	if !closeAfter {
		t.Fatal("QUIT should request connection close")
	}
}

func TestCommand(t *testing.T) {
	h, _ := newTestHandler(t)

	// redis-cli sends COMMAND DOCS on connect; any form gets an empty array.
	wantEqual(t, exec(t, h, "COMMAND"), resp.NewArray())
	wantEqual(t, exec(t, h, "COMMAND", "DOCS"), resp.NewArray())
}

func TestUnknownCommand(t *testing.T) {
	h, _ := newTestHandler(t)

	wantErrorContaining(t, exec(t, h, "NOSUCHTHING", "x"), "unknown command 'NOSUCHTHING'")
}

func TestEmptyRequest(t *testing.T) {
	h, _ := newTestHandler(t)

	reply, _ := h.Execute(nil)
	if reply.Type != resp.Error {
		t.Fatalf("empty request reply = %+v, want error", reply)
	}
}

// =============================================================================
// SET / GET
// =============================================================================

func TestSetGet(t *testing.T) {
	h, _ := newTestHandler(t)

	wantEqual(t, exec(t, h, "SET", "foo", "bar"), resp.NewSimpleString("OK"))
	wantEqual(t, exec(t, h, "GET", "foo"), resp.NewBulkString("bar"))

	// Overwrite
	wantEqual(t, exec(t, h, "SET", "foo", "baz"), resp.NewSimpleString("OK"))
	wantEqual(t, exec(t, h, "GET", "foo"), resp.NewBulkString("baz"))

	// Missing key
	wantEqual(t, exec(t, h, "GET", "nope"), resp.NewNullBulk())

	wantErrorContaining(t, exec(t, h, "SET", "foo"), "wrong number of arguments")
	wantErrorContaining(t, exec(t, h, "GET"), "wrong number of arguments")
}

func TestSetBinaryValue(t *testing.T) {
	h, _ := newTestHandler(t)

	value := []byte{0x00, 0x01, '\r', '\n', 0xff}
	reply, _ := h.Execute([][]byte{[]byte("SET"), []byte("bin"), value})
	wantEqual(t, reply, resp.NewSimpleString("OK"))

	wantEqual(t, exec(t, h, "GET", "bin"), resp.NewBulk(value))
}

func TestSetExpiration(t *testing.T) {
	h, clock := newTestHandler(t)

	wantEqual(t, exec(t, h, "SET", "s", "1", "EX", "10"), resp.NewSimpleString("OK"))
	wantEqual(t, exec(t, h, "SET", "ms", "1", "PX", "150"), resp.NewSimpleString("OK"))

	clock.Advance(200 * time.Millisecond)
	wantEqual(t, exec(t, h, "GET", "ms"), resp.NewNullBulk())
	wantEqual(t, exec(t, h, "GET", "s"), resp.NewBulkString("1"))

	clock.Advance(10 * time.Second)
	wantEqual(t, exec(t, h, "GET", "s"), resp.NewNullBulk())
}

func TestSetOverwriteClearsExpiration(t *testing.T) {
	h, clock := newTestHandler(t)

	exec(t, h, "SET", "k", "v", "PX", "100")
	exec(t, h, "SET", "k", "v2")

	clock.Advance(time.Second)
	wantEqual(t, exec(t, h, "GET", "k"), resp.NewBulkString("v2"))
	wantEqual(t, exec(t, h, "TTL", "k"), resp.NewInteger(-1))
}

func TestSetOptionErrors(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name   string
		words  []string
		substr string
	}{
		{"ex not a number", []string{"SET", "k", "v", "EX", "abc"}, "not an integer"},
		{"ex zero", []string{"SET", "k", "v", "EX", "0"}, "invalid expire time in 'set'"},
		{"px negative", []string{"SET", "k", "v", "PX", "-5"}, "invalid expire time in 'set'"},
		{"ex missing operand", []string{"SET", "k", "v", "EX"}, "syntax error"},
		{"ex and px", []string{"SET", "k", "v", "EX", "1", "PX", "100"}, "syntax error"},
		{"nx and xx", []string{"SET", "k", "v", "NX", "XX"}, "syntax error"},
		{"unknown option", []string{"SET", "k", "v", "BOGUS"}, "syntax error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wantErrorContaining(t, exec(t, h, tt.words...), tt.substr)
		})
	}
}

func TestSetNX(t *testing.T) {
	h, clock := newTestHandler(t)

	wantEqual(t, exec(t, h, "SET", "k", "a", "NX"), resp.NewSimpleString("OK"))
	wantEqual(t, exec(t, h, "SET", "k", "b", "NX"), resp.NewNullBulk())
	wantEqual(t, exec(t, h, "GET", "k"), resp.NewBulkString("a"))

	// An expired entry counts as absent.
	exec(t, h, "SET", "e", "old", "PX", "50")
	clock.Advance(100 * time.Millisecond)
	wantEqual(t, exec(t, h, "SET", "e", "new", "NX"), resp.NewSimpleString("OK"))
	wantEqual(t, exec(t, h, "GET", "e"), resp.NewBulkString("new"))
}

func TestSetXX(t *testing.T) {
	h, clock := newTestHandler(t)

	wantEqual(t, exec(t, h, "SET", "k", "a", "XX"), resp.NewNullBulk())
	wantEqual(t, exec(t, h, "GET", "k"), resp.NewNullBulk())

	exec(t, h, "SET", "k", "a")
	wantEqual(t, exec(t, h, "SET", "k", "b", "XX", "EX", "5"), resp.NewSimpleString("OK"))
	wantEqual(t, exec(t, h, "GET", "k"), resp.NewBulkString("b"))

	// An expired entry counts as absent.
	clock.Advance(10 * time.Second)
	wantEqual(t, exec(t, h, "SET", "k", "c", "XX"), resp.NewNullBulk())
}

// =============================================================================
// Key management
// =============================================================================

func TestDel(t *testing.T) {
	h, _ := newTestHandler(t)

	exec(t, h, "SET", "a", "1")
	exec(t, h, "SET", "b", "2")

	wantEqual(t, exec(t, h, "DEL", "a", "b", "missing"), resp.NewInteger(2))
	wantEqual(t, exec(t, h, "GET", "a"), resp.NewNullBulk())
	wantErrorContaining(t, exec(t, h, "DEL"), "wrong number of arguments")
}

func TestExists(t *testing.T) {
	h, _ := newTestHandler(t)

	exec(t, h, "SET", "a", "1")

	wantEqual(t, exec(t, h, "EXISTS", "a"), resp.NewInteger(1))
	wantEqual(t, exec(t, h, "EXISTS", "missing"), resp.NewInteger(0))
	// Each occurrence counts.
	wantEqual(t, exec(t, h, "EXISTS", "a", "a", "missing"), resp.NewInteger(2))
}

func TestExpireAndTTL(t *testing.T) {
	h, clock := newTestHandler(t)

	wantEqual(t, exec(t, h, "TTL", "missing"), resp.NewInteger(-2))
	wantEqual(t, exec(t, h, "EXPIRE", "missing", "10"), resp.NewInteger(0))

	exec(t, h, "SET", "k", "v")
	wantEqual(t, exec(t, h, "TTL", "k"), resp.NewInteger(-1))
	wantEqual(t, exec(t, h, "PTTL", "k"), resp.NewInteger(-1))

	wantEqual(t, exec(t, h, "EXPIRE", "k", "10"), resp.NewInteger(1))
	wantEqual(t, exec(t, h, "TTL", "k"), resp.NewInteger(10))
	wantEqual(t, exec(t, h, "PTTL", "k"), resp.NewInteger(10_000))

	// Remaining time rounds to the nearest second.
	clock.Advance(500 * time.Millisecond)
	wantEqual(t, exec(t, h, "TTL", "k"), resp.NewInteger(10))
	wantEqual(t, exec(t, h, "PTTL", "k"), resp.NewInteger(9_500))

	clock.Advance(600 * time.Millisecond)
	wantEqual(t, exec(t, h, "TTL", "k"), resp.NewInteger(9))

	clock.Advance(10 * time.Second)
	wantEqual(t, exec(t, h, "TTL", "k"), resp.NewInteger(-2))

	wantErrorContaining(t, exec(t, h, "EXPIRE", "k", "abc"), "not an integer")
}

func TestTTLSubSecondRounding(t *testing.T) {
	h, clock := newTestHandler(t)

	// 900ms left rounds to 1, not 0, while the key is still live.
	exec(t, h, "SET", "k", "v", "PX", "900")
	wantEqual(t, exec(t, h, "TTL", "k"), resp.NewInteger(1))

	clock.Advance(500 * time.Millisecond)
	wantEqual(t, exec(t, h, "TTL", "k"), resp.NewInteger(0))
	wantEqual(t, exec(t, h, "GET", "k"), resp.NewBulkString("v"))
}

func TestExpireOverflow(t *testing.T) {
	h, _ := newTestHandler(t)

	exec(t, h, "SET", "k", "v")

	// Durations whose nanosecond product would overflow are rejected
	// rather than silently arming no expiry.
	wantErrorContaining(t, exec(t, h, "EXPIRE", "k", "99999999999999"), "invalid expire")
	wantErrorContaining(t, exec(t, h, "PEXPIRE", "k", "99999999999999"), "invalid expire")
	wantErrorContaining(t, exec(t, h, "SET", "k2", "v", "EX", "99999999999999"), "invalid expire")
	wantErrorContaining(t, exec(t, h, "SET", "k2", "v", "PX", "99999999999999"), "invalid expire")

	wantEqual(t, exec(t, h, "TTL", "k"), resp.NewInteger(-1))
	wantEqual(t, exec(t, h, "EXISTS", "k2"), resp.NewInteger(0))
}

func TestPExpire(t *testing.T) {
	h, clock := newTestHandler(t)

	exec(t, h, "SET", "k", "v")
	wantEqual(t, exec(t, h, "PEXPIRE", "k", "250"), resp.NewInteger(1))

	clock.Advance(300 * time.Millisecond)
	wantEqual(t, exec(t, h, "GET", "k"), resp.NewNullBulk())
}

func TestExpireNonPositiveDeletes(t *testing.T) {
	h, _ := newTestHandler(t)

	exec(t, h, "SET", "k", "v")
	wantEqual(t, exec(t, h, "EXPIRE", "k", "0"), resp.NewInteger(1))
	wantEqual(t, exec(t, h, "EXISTS", "k"), resp.NewInteger(0))

	wantEqual(t, exec(t, h, "EXPIRE", "k", "-1"), resp.NewInteger(0))
}

func TestPersist(t *testing.T) {
	h, clock := newTestHandler(t)

	wantEqual(t, exec(t, h, "PERSIST", "missing"), resp.NewInteger(0))

	exec(t, h, "SET", "k", "v")
	wantEqual(t, exec(t, h, "PERSIST", "k"), resp.NewInteger(0))

	exec(t, h, "EXPIRE", "k", "1")
	wantEqual(t, exec(t, h, "PERSIST", "k"), resp.NewInteger(1))

	clock.Advance(5 * time.Second)
	wantEqual(t, exec(t, h, "GET", "k"), resp.NewBulkString("v"))
}

// =============================================================================
// Iteration
// =============================================================================

func TestKeys(t *testing.T) {
	h, _ := newTestHandler(t)

	exec(t, h, "SET", "user:1", "a")
	exec(t, h, "SET", "user:2", "b")
	exec(t, h, "SET", "session:1", "c")

	wantEqual(t, exec(t, h, "KEYS", "user:*"), resp.NewArray(
		resp.NewBulkString("user:1"),
		resp.NewBulkString("user:2"),
	))
	wantEqual(t, exec(t, h, "KEYS", "nope*"), resp.NewArray())
	wantErrorContaining(t, exec(t, h, "KEYS"), "wrong number of arguments")
}

func TestScanFullWalk(t *testing.T) {
	h, _ := newTestHandler(t)

	want := map[string]bool{}
	for i := 0; i < 25; i++ {
		key := "k" + strconv.Itoa(i)
		exec(t, h, "SET", key, "v")
		want[key] = true
	}

	seen := map[string]bool{}
	cursor := "0"
	for iter := 0; ; iter++ {
		if iter > 100 {
			t.Fatal("SCAN did not terminate")
		}
		reply := exec(t, h, "SCAN", cursor, "COUNT", "7")
		if reply.Type != resp.Array || len(reply.Array) != 2 {
			t.Fatalf("SCAN reply = %+v, want [cursor, keys]", reply)
		}
		cursor = string(reply.Array[0].Bulk)
		for _, elem := range reply.Array[1].Array {
			seen[string(elem.Bulk)] = true
		}
		if cursor == "0" {
			break
		}
	}

	if len(seen) != len(want) {
		t.Fatalf("SCAN walked %d keys, want %d", len(seen), len(want))
	}
}

func TestScanMatch(t *testing.T) {
	h, _ := newTestHandler(t)

	exec(t, h, "SET", "user:1", "a")
	exec(t, h, "SET", "other", "b")

	reply := exec(t, h, "SCAN", "0", "MATCH", "user:*", "COUNT", "100")
	keys := reply.Array[1].Array
	if len(keys) != 1 || string(keys[0].Bulk) != "user:1" {
		t.Fatalf("SCAN MATCH returned %+v, want [user:1]", keys)
	}
}

func TestScanErrors(t *testing.T) {
	h, _ := newTestHandler(t)

	wantErrorContaining(t, exec(t, h, "SCAN", "abc"), "invalid cursor")
	wantErrorContaining(t, exec(t, h, "SCAN", "0", "COUNT", "0"), "not an integer")
	wantErrorContaining(t, exec(t, h, "SCAN", "0", "MATCH"), "syntax error")
	wantErrorContaining(t, exec(t, h, "SCAN", "0", "BOGUS", "x"), "syntax error")
}

// =============================================================================
// Server commands
// =============================================================================

func TestDbsizeAndFlush(t *testing.T) {
	h, _ := newTestHandler(t)

	wantEqual(t, exec(t, h, "DBSIZE"), resp.NewInteger(0))

	exec(t, h, "SET", "a", "1")
	exec(t, h, "SET", "b", "2")
	wantEqual(t, exec(t, h, "DBSIZE"), resp.NewInteger(2))

	wantEqual(t, exec(t, h, "FLUSHDB"), resp.NewSimpleString("OK"))
	wantEqual(t, exec(t, h, "DBSIZE"), resp.NewInteger(0))
}

func TestConfigGet(t *testing.T) {
	clock := newFakeClock()
	st := store.New(store.WithClock(clock.Now))
	h := New(st, WithCompatConfig(map[string]string{"dir": "/data"}))

	wantEqual(t, exec(t, h, "CONFIG", "GET", "dir"), resp.NewArray(
		resp.NewBulkString("dir"),
		resp.NewBulkString("/data"),
	))
	wantEqual(t, exec(t, h, "CONFIG", "GET", "appendonly"), resp.NewArray(
		resp.NewBulkString("appendonly"),
		resp.NewBulkString("no"),
	))
	wantEqual(t, exec(t, h, "CONFIG", "GET", "unknown-param"), resp.NewArray())
	wantErrorContaining(t, exec(t, h, "CONFIG", "SET", "dir", "/x"), "unknown CONFIG subcommand")
}

func TestInfo(t *testing.T) {
	h, _ := newTestHandler(t)
	exec(t, h, "SET", "a", "1")

	reply := exec(t, h, "INFO")
	if reply.Type != resp.BulkString {
		t.Fatalf("INFO reply type = %c, want bulk string", reply.Type)
	}
	body := string(reply.Bulk)
	for _, want := range []string{"# Server", "role:master", "db0:keys=1"} {
		if !strings.Contains(body, want) {
			t.Errorf("INFO = %q, want it to contain %q", body, want)
		}
	}

	// Section filter
	repl := string(exec(t, h, "INFO", "replication").Bulk)
	if !strings.Contains(repl, "role:master") || strings.Contains(repl, "# Server") {
		t.Errorf("INFO replication = %q, want only the replication section", repl)
	}
}

func TestObserver(t *testing.T) {
	clock := newFakeClock()
	st := store.New(store.WithClock(clock.Now))

	var mu sync.Mutex
	counts := map[string]int{}
	errs := 0
	h := New(st, WithObserver(func(name string, isErr bool) {
		mu.Lock()
		defer mu.Unlock()
		counts[name]++
		if isErr {
			errs++
		}
	}))

	exec(t, h, "SET", "k", "v")
	exec(t, h, "get", "k")
	exec(t, h, "GET")

	if counts["SET"] != 1 || counts["GET"] != 2 {
		t.Fatalf("observer counts = %v, want SET:1 GET:2", counts)
	}
	if errs != 1 {
		t.Fatalf("observer errors = %d, want 1", errs)
	}
}
