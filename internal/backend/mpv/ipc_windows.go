//go:build windows

package mpv

import (
	"context"
	"net"

	"github.com/Microsoft/go-winio"
)

const (
	DefaultBinary  = "mpv.exe"
	DefaultIPCPath = `\\.\pipe\mpvsocket`
)

func dialIPC(ctx context.Context, path string) (net.Conn, error) {
	return winio.DialPipeContext(ctx, path)
}

// Named pipes disappear with the process that served them.
func removeStaleEndpoint(string) error {
	return nil
}

func platformArgs() []string {
	return nil
}
