package factory

import (
	"net"
)

// PickUnusedPort asks the kernel for a free local TCP port and releases it.
// Another process may take the port before the caller binds it.
func PickUnusedPort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	port := l.Addr().(*net.TCPAddr).Port
	if err := l.Close(); err != nil {
		return 0, err
	}
	return port, nil
}
