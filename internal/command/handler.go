package command

import (
	"bytes"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kevadb/keva-go/internal/infra/buildinfo"
	"github.com/kevadb/keva-go/internal/server/resp"
	"github.com/kevadb/keva-go/internal/store"
)

// Handler executes decoded commands against the shared store.
type Handler struct {
	store   *store.Store
	logger  *slog.Logger
	started time.Time

	// compat holds the static parameter table served by CONFIG GET.
	compat map[string]string

	// observe is invoked after every executed command with its
	// normalized name and whether the reply was an error. Feeds
	// metrics.
	observe func(name string, isErr bool)
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithCompatConfig overrides entries of the CONFIG GET parameter table.
func WithCompatConfig(params map[string]string) Option {
	return func(h *Handler) {
		for k, v := range params {
			h.compat[strings.ToLower(k)] = v
		}
	}
}

// WithObserver registers a per-command callback.
func WithObserver(fn func(name string, isErr bool)) Option {
	return func(h *Handler) {
		h.observe = fn
	}
}

// New creates a Handler over the given store.
func New(st *store.Store, opts ...Option) *Handler {
	h := &Handler{
		store:   st,
		logger:  slog.Default(),
		started: time.Now(),
		compat: map[string]string{
			"dir":        "",
			"dbfilename": "",
			"appendonly": "no",
			"maxmemory":  "0",
		},
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Execute runs one command and returns its reply. The second result
// reports whether the connection should be closed after the reply is
// written (QUIT).
func (h *Handler) Execute(args [][]byte) (resp.Value, bool) {
	if len(args) == 0 {
		return resp.NewError("ERR no command"), false
	}

	name := normalizeCommandName(args[0])

	var reply resp.Value
	closeAfter := false

	switch name {
	case "PING":
		reply = h.ping(args)
	case "ECHO":
		reply = h.echo(args)
	case "SET":
		reply = h.set(args)
	case "GET":
		reply = h.get(args)
	case "DEL":
		reply = h.del(args)
	case "EXISTS":
		reply = h.exists(args)
	case "EXPIRE":
		reply = h.expire(name, args, time.Second)
	case "PEXPIRE":
		reply = h.expire(name, args, time.Millisecond)
	case "TTL":
		reply = h.ttl(args, time.Second)
	case "PTTL":
		reply = h.ttl(args, time.Millisecond)
	case "PERSIST":
		reply = h.persist(args)
	case "KEYS":
		reply = h.keys(args)
	case "SCAN":
		reply = h.scan(args)
	case "DBSIZE":
		reply = h.dbsize(args)
	case "FLUSHDB":
		reply = h.flushdb(args)
	case "CONFIG":
		reply = h.config(args)
	case "INFO":
		reply = h.info(args)
	case "COMMAND":
		// Client handshake compatibility (redis-cli sends COMMAND DOCS).
		reply = resp.NewArray()
	case "QUIT":
		reply = resp.NewSimpleString("OK")
		closeAfter = true
	default:
		reply = errUnknownCommand(name).Reply()
	}

	if h.observe != nil {
		h.observe(name, reply.Type == resp.Error)
	}

	return reply, closeAfter
}

// PING [msg]
func (h *Handler) ping(args [][]byte) resp.Value {
	switch len(args) {
	case 1:
		return resp.NewSimpleString("PONG")
	case 2:
		return resp.NewBulk(args[1])
	default:
		return errWrongArity("PING").Reply()
	}
}

// ECHO <msg>
func (h *Handler) echo(args [][]byte) resp.Value {
	if len(args) != 2 {
		return errWrongArity("ECHO").Reply()
	}
	return resp.NewBulk(args[1])
}

// SET <key> <value> [EX seconds | PX milliseconds] [NX | XX]
func (h *Handler) set(args [][]byte) resp.Value {
	if len(args) < 3 {
		return errWrongArity("SET").Reply()
	}

	key := string(args[1])
	value := args[2]

	var ttl time.Duration
	ttlSet := false
	mode := byte(0) // 'N' for NX, 'X' for XX

	for i := 3; i < len(args); i++ {
		switch strings.ToUpper(string(args[i])) {
		case "EX", "PX":
			if ttlSet || i+1 >= len(args) {
				return ErrSyntax.Reply()
			}
			unit := time.Second
			if strings.ToUpper(string(args[i]))[0] == 'P' {
				unit = time.Millisecond
			}
			n, err := strconv.ParseInt(string(args[i+1]), 10, 64)
			if err != nil {
				return ErrNotInteger.Reply()
			}
			if n <= 0 || n > math.MaxInt64/int64(unit) {
				return errInvalidExpire("SET").Reply()
			}
			ttl = time.Duration(n) * unit
			ttlSet = true
			i++
		case "NX":
			if mode != 0 {
				return ErrSyntax.Reply()
			}
			mode = 'N'
		case "XX":
			if mode != 0 {
				return ErrSyntax.Reply()
			}
			mode = 'X'
		default:
			return ErrSyntax.Reply()
		}
	}

	switch mode {
	case 'N':
		if !h.store.SetNX(key, value, ttl) {
			return resp.NewNullBulk()
		}
	case 'X':
		if !h.store.SetXX(key, value, ttl) {
			return resp.NewNullBulk()
		}
	default:
		h.store.Set(key, value, ttl)
	}
	return resp.NewSimpleString("OK")
}

// GET <key>
func (h *Handler) get(args [][]byte) resp.Value {
	if len(args) != 2 {
		return errWrongArity("GET").Reply()
	}

	value, ok := h.store.Get(string(args[1]))
	if !ok {
		return resp.NewNullBulk()
	}
	return resp.NewBulk(value)
}

// DEL <key> [key ...]
func (h *Handler) del(args [][]byte) resp.Value {
	if len(args) < 2 {
		return errWrongArity("DEL").Reply()
	}

	keys := make([]string, 0, len(args)-1)
	for _, a := range args[1:] {
		keys = append(keys, string(a))
	}
	return resp.NewInteger(int64(h.store.Delete(keys...)))
}

// EXISTS <key> [key ...]
func (h *Handler) exists(args [][]byte) resp.Value {
	if len(args) < 2 {
		return errWrongArity("EXISTS").Reply()
	}

	count := int64(0)
	for _, a := range args[1:] {
		if h.store.Exists(string(a)) {
			count++
		}
	}
	return resp.NewInteger(count)
}

// EXPIRE <key> <seconds> / PEXPIRE <key> <milliseconds>
func (h *Handler) expire(name string, args [][]byte, unit time.Duration) resp.Value {
	if len(args) != 3 {
		return errWrongArity(name).Reply()
	}

	key := string(args[1])
	n, err := strconv.ParseInt(string(args[2]), 10, 64)
	if err != nil {
		return ErrNotInteger.Reply()
	}

	// A non-positive duration removes the key immediately.
	if n <= 0 {
		if h.store.Delete(key) == 1 {
			return resp.NewInteger(1)
		}
		return resp.NewInteger(0)
	}
	if n > math.MaxInt64/int64(unit) {
		return errInvalidExpire(name).Reply()
	}

	if h.store.Expire(key, time.Duration(n)*unit) {
		return resp.NewInteger(1)
	}
	return resp.NewInteger(0)
}

// TTL <key> / PTTL <key>
//
// Returns:
//   - -2 if the key does not exist (or has expired)
//   - -1 if the key exists but has no associated expire
//   - Otherwise the remaining lifetime in the command's unit
func (h *Handler) ttl(args [][]byte, unit time.Duration) resp.Value {
	if len(args) != 2 {
		return errWrongArity(normalizeCommandName(args[0])).Reply()
	}

	remaining, hasExpiry, exists := h.store.TTL(string(args[1]))
	if !exists {
		return resp.NewInteger(-2)
	}
	if !hasExpiry {
		return resp.NewInteger(-1)
	}
	// Round to the nearest unit, so a key with 900ms left reports
	// TTL 1 rather than 0 while still live.
	return resp.NewInteger(int64((remaining + unit/2) / unit))
}

// PERSIST <key>
func (h *Handler) persist(args [][]byte) resp.Value {
	if len(args) != 2 {
		return errWrongArity("PERSIST").Reply()
	}

	if h.store.Persist(string(args[1])) {
		return resp.NewInteger(1)
	}
	return resp.NewInteger(0)
}

// KEYS <pattern>
func (h *Handler) keys(args [][]byte) resp.Value {
	if len(args) != 2 {
		return errWrongArity("KEYS").Reply()
	}

	pattern := string(args[1])
	keys := h.store.Keys(func(key string) bool {
		return MatchGlob(pattern, key)
	})
	sort.Strings(keys)

	elems := make([]resp.Value, 0, len(keys))
	for _, key := range keys {
		elems = append(elems, resp.NewBulkString(key))
	}
	return resp.NewArray(elems...)
}

// SCAN <cursor> [MATCH pattern] [COUNT count]
func (h *Handler) scan(args [][]byte) resp.Value {
	if len(args) < 2 {
		return errWrongArity("SCAN").Reply()
	}

	cursor, err := strconv.ParseUint(string(args[1]), 10, 64)
	if err != nil {
		return ErrInvalidCursor.Reply()
	}

	pattern := ""
	count := 10
	for i := 2; i < len(args); i += 2 {
		if i+1 >= len(args) {
			return ErrSyntax.Reply()
		}
		switch strings.ToUpper(string(args[i])) {
		case "MATCH":
			pattern = string(args[i+1])
		case "COUNT":
			c, err := strconv.Atoi(string(args[i+1]))
			if err != nil || c <= 0 {
				return ErrNotInteger.Reply()
			}
			count = c
		default:
			return ErrSyntax.Reply()
		}
	}

	var filter func(string) bool
	if pattern != "" && pattern != "*" {
		filter = func(key string) bool {
			return MatchGlob(pattern, key)
		}
	}

	keys, next := h.store.Scan(cursor, count, filter)

	elems := make([]resp.Value, 0, len(keys))
	for _, key := range keys {
		elems = append(elems, resp.NewBulkString(key))
	}
	return resp.NewArray(
		resp.NewBulkString(strconv.FormatUint(next, 10)),
		resp.NewArray(elems...),
	)
}

// DBSIZE
func (h *Handler) dbsize(args [][]byte) resp.Value {
	if len(args) != 1 {
		return errWrongArity("DBSIZE").Reply()
	}
	return resp.NewInteger(int64(h.store.Len()))
}

// FLUSHDB
func (h *Handler) flushdb(args [][]byte) resp.Value {
	if len(args) != 1 {
		return errWrongArity("FLUSHDB").Reply()
	}
	h.store.Flush()
	return resp.NewSimpleString("OK")
}

// CONFIG GET <parameter>
func (h *Handler) config(args [][]byte) resp.Value {
	if len(args) < 2 {
		return errWrongArity("CONFIG").Reply()
	}
	if strings.ToUpper(string(args[1])) != "GET" {
		return NewCommandError("ERR", "unknown CONFIG subcommand '"+string(args[1])+"'").Reply()
	}
	if len(args) != 3 {
		return errWrongArity("CONFIG").Reply()
	}

	param := strings.ToLower(string(args[2]))
	value, ok := h.compat[param]
	if !ok {
		return resp.NewArray()
	}
	return resp.NewArray(resp.NewBulkString(param), resp.NewBulkString(value))
}

// INFO [section]
func (h *Handler) info(args [][]byte) resp.Value {
	if len(args) > 2 {
		return errWrongArity("INFO").Reply()
	}

	section := ""
	if len(args) == 2 {
		section = strings.ToLower(string(args[1]))
	}

	var b strings.Builder
	writeSection := func(name string, lines ...string) {
		if section != "" && section != name {
			return
		}
		b.WriteString("# " + strings.ToUpper(name[:1]) + name[1:] + "\r\n")
		for _, line := range lines {
			b.WriteString(line + "\r\n")
		}
		b.WriteString("\r\n")
	}

	build := buildinfo.Get()
	writeSection("server",
		"keva_version:"+build.Version,
		"keva_git_sha1:"+build.Commit,
		"go_version:"+runtime.Version(),
		"os:"+runtime.GOOS,
		"arch:"+runtime.GOARCH,
		fmt.Sprintf("uptime_in_seconds:%d", int64(time.Since(h.started).Seconds())),
	)
	writeSection("replication",
		"role:master",
		"connected_slaves:0",
	)
	writeSection("keyspace",
		fmt.Sprintf("db0:keys=%d,expired=%d", h.store.Len(), h.store.ExpiredEvictions()),
	)

	return resp.NewBulkString(strings.TrimSuffix(b.String(), "\r\n"))
}

// normalizeCommandName uppercases an ASCII command token without
// allocating for already uppercased input.
func normalizeCommandName(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	if bytes.ContainsAny(b, "abcdefghijklmnopqrstuvwxyz") {
		return strings.ToUpper(string(b))
	}
	return string(b)
}
