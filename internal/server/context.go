package server

import (
	"context"
	"crypto/tls"
	"net"

	"github.com/psanford/tlsfingerprint/fingerprintlistener"

	"github.com/muliwe/aitm-detector/internal/fingerprint"
)

// connContext attaches the ClientHello fingerprint of c to the request context.
// The connection is wrapped: tls.Conn -> fingerprintlistener.Conn -> net.Conn
func connContext(ctx context.Context, c net.Conn) context.Context {
	if tlsConn, ok := c.(*tls.Conn); ok {
		c = tlsConn.NetConn()
	}

	if fpConn, ok := c.(fingerprintlistener.Conn); ok {
		if fp := fpConn.Fingerprint(); fp != nil {
			return fingerprint.WithTLSFingerprint(ctx, fp)
		}
	}
	return ctx
}
