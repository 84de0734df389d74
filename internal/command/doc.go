// Package command implements the KevaDB command table.
//
// A Handler maps a decoded request (command name plus argument byte
// strings) to a typed RESP reply, executing against the shared store.
// Execution never panics on malformed input: every validation failure
// is converted into a RESP Error value returned to the client, and
// the connection stays usable afterwards.
//
// Command names are matched case-insensitively; unknown names funnel
// to a single catch-all error branch, so adding a command is a
// compile-time-checked change to one switch.
package command
