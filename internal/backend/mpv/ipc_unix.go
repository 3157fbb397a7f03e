//go:build !windows

package mpv

import (
	"context"
	"errors"
	"io/fs"
	"net"
	"os"
)

const (
	DefaultBinary  = "mpv"
	DefaultIPCPath = "/tmp/mpvsocket"
)

func dialIPC(ctx context.Context, path string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, "unix", path)
}

// removeStaleEndpoint deletes a socket file left behind by a crashed player.
func removeStaleEndpoint(path string) error {
	err := os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func platformArgs() []string {
	return []string{"--no-terminal"}
}
