package platform

import (
	"net"
	"os"
	"time"
)

// ListenUnix listens on a UNIX-domain stream socket at path, removing any
// stale socket file left behind by a crashed prior owner first. Used by
// the (out-of-core-scope) network-tunnel collaborator's test doubles and
// by integration tests that need a real cross-process transport without
// going through shared memory.
//
// STDLIB JUSTIFICATION: net.Listen/net.Dial is the idiomatic Go surface
// for UDS/UDP; none of the retrieval pack's websocket libraries
// (gorilla/websocket, gobwas/ws) operate below the HTTP-upgrade layer, so
// there is no ecosystem dependency that fits raw stream/datagram sockets.
func ListenUnix(path string) (net.Listener, error) {
	_ = os.Remove(path)
	l, err := net.Listen("unix", path)
	if err != nil {
		return nil, Translate("socket.listen_unix", err)
	}
	return l, nil
}

// DialUnix connects to a UNIX-domain stream socket with a deadline.
func DialUnix(path string, deadline time.Duration) (net.Conn, error) {
	conn, err := net.DialTimeout("unix", path, deadline)
	if err != nil {
		return nil, Translate("socket.dial_unix", err)
	}
	return conn, nil
}

// ListenUDP opens a UDP socket bound to addr (host:port, or ":0" for an
// ephemeral port).
func ListenUDP(addr string) (*net.UDPConn, error) {
	a, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, Translate("socket.resolve_udp", err)
	}
	conn, err := net.ListenUDP("udp", a)
	if err != nil {
		return nil, Translate("socket.listen_udp", err)
	}
	return conn, nil
}
