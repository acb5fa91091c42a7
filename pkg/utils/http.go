package utils

import "io"

// drainLimit bounds how much of an unread body is discarded before closing.
const drainLimit = 64 << 10

// DrainAndClose discards up to drainLimit bytes of rc and closes it, so keep-alive connections
// can be reused without reading arbitrarily large error bodies.
func DrainAndClose(rc io.ReadCloser) error {
	if rc == nil {
		return nil
	}
	_, _ = io.CopyN(io.Discard, rc, drainLimit)
	return rc.Close()
}
