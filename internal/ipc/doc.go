// Package ipc provides JSON-RPC daemon control over a Unix domain socket.
// The CLI is the only intended client; the wire types live in types.go.
package ipc
