package fingerprint

import (
	"context"
	"crypto/tls"
	"net/http"

	"github.com/psanford/tlsfingerprint"
)

type contextKey string

// ContextKeyTLSFingerprint is the request context key holding the
// *tlsfingerprint.Fingerprint captured by the listener
const ContextKeyTLSFingerprint contextKey = "tls_fingerprint"

// WithTLSFingerprint returns ctx carrying fp
func WithTLSFingerprint(ctx context.Context, fp *tlsfingerprint.Fingerprint) context.Context {
	return context.WithValue(ctx, ContextKeyTLSFingerprint, fp)
}

// TLSFingerprintFromContext returns the fingerprint stored in ctx, or nil
func TLSFingerprintFromContext(ctx context.Context) *tlsfingerprint.Fingerprint {
	if fp, ok := ctx.Value(ContextKeyTLSFingerprint).(*tlsfingerprint.Fingerprint); ok {
		return fp
	}
	return nil
}

// Collect extracts requester diagnostics from an HTTP request
func Collect(r *http.Request) Requester {
	return Requester{
		RemoteAddr:   r.RemoteAddr,
		ForwardedFor: r.Header.Get("X-Forwarded-For"),
		UserAgent:    r.UserAgent(),
		AcceptLang:   r.Header.Get("Accept-Language"),
		Proto:        r.Proto,
		HeaderCount:  len(r.Header),
		HTTPHash:     HTTPHash(r),
		SecFetchSite: r.Header.Get("Sec-Fetch-Site"),
		SecFetchDest: r.Header.Get("Sec-Fetch-Dest"),
		TLS:          collectTLS(r),
	}
}

func collectTLS(r *http.Request) TLSInfo {
	info := TLSInfo{
		ClientHello: TLSFingerprintFromContext(r.Context()),
	}
	if r.TLS == nil {
		return info
	}

	info.Available = true
	info.Version = tlsVersionName(r.TLS.Version)
	info.CipherSuite = tls.CipherSuiteName(r.TLS.CipherSuite)
	info.ALPN = r.TLS.NegotiatedProtocol
	info.ServerName = r.TLS.ServerName
	return info
}

func tlsVersionName(version uint16) string {
	switch version {
	case tls.VersionTLS10:
		return "TLS 1.0"
	case tls.VersionTLS11:
		return "TLS 1.1"
	case tls.VersionTLS12:
		return "TLS 1.2"
	case tls.VersionTLS13:
		return "TLS 1.3"
	default:
		return "unknown"
	}
}
