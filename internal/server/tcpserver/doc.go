// Package tcpserver implements the KevaDB client-facing TCP listener.
//
// Each accepted connection is served by its own goroutine running a
// read-decode-execute-reply loop over the RESP codec. Replies to
// pipelined requests are written in request order and flushed as a
// single batch per read. Protocol violations close the connection
// after a best-effort error reply; command errors never do.
package tcpserver
