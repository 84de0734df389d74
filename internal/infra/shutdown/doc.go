// Package shutdown coordinates graceful termination of keva-server:
// signal handling (SIGINT, SIGTERM), reverse-order cleanup hooks, and
// a total teardown timeout.
package shutdown
