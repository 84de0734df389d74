// Package resp implements the RESP2 wire codec for KevaDB.
//
// The codec is a pure transformation between byte slices and Value,
// the tagged representation of a RESP frame. Decode is incremental:
// when the buffer holds less than one complete frame it reports
// ErrIncomplete and the caller retains the buffer and retries after
// more bytes arrive. This is the suspension point for streaming
// socket reads and what makes pipelining cheap: the connection
// handler decodes as many complete frames as the buffer holds before
// touching the socket again.
//
// Protocol limits (MaxArrayLen, MaxBulkLen, MaxInlineLen) bound the
// memory a single frame can claim; breaching them is reported via
// ErrLimitExceeded and treated as connection-fatal by the server.
package resp
