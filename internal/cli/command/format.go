// Package command provides CLI command definitions for keva-cli.
package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kevadb/keva-go/internal/server/resp"
)

// Format renders a RESP reply the way redis-cli does: quiet simple
// strings, "(integer) n", "(nil)" for nulls, numbered array elements.
func Format(v resp.Value) string {
	var b strings.Builder
	formatInto(&b, v, "")
	return b.String()
}

func formatInto(b *strings.Builder, v resp.Value, indent string) {
	switch v.Type {
	case resp.SimpleString:
		b.WriteString(v.Str)
	case resp.Error:
		b.WriteString("(error) " + v.Str)
	case resp.Integer:
		b.WriteString("(integer) " + strconv.FormatInt(v.Int, 10))
	case resp.BulkString:
		if v.Null {
			b.WriteString("(nil)")
			return
		}
		b.WriteString(string(v.Bulk))
	case resp.Array:
		if v.Null {
			b.WriteString("(nil)")
			return
		}
		if len(v.Array) == 0 {
			b.WriteString("(empty array)")
			return
		}
		for i, elem := range v.Array {
			num := strconv.Itoa(i+1) + ") "
			if i == 0 {
				b.WriteString(num)
			} else {
				b.WriteString("\n" + indent + num)
			}
			formatInto(b, elem, indent+strings.Repeat(" ", len(num)))
		}
	default:
		b.WriteString(fmt.Sprintf("(unknown reply type %q)", byte(v.Type)))
	}
}
