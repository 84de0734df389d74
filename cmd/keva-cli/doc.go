// keva-cli is the KevaDB command-line client.
//
// Usage:
//
//	keva-cli [-s host:port] COMMAND [args...]
//
// The server address can also be set via the KEVA_SERVER environment
// variable.
package main
