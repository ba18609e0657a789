// Package websocket pushes dataset lifecycle events to connected
// dashboard clients, so an open browser learns about snapshot reloads
// without polling. The hub fans out JSON messages; clients that stop
// draining their buffer are disconnected.
package websocket
