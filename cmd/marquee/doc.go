// Command marquee is the kiosk CLI: it runs the background daemon and
// controls a running daemon over its unix socket.
package main
