package fingerprint

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/psanford/tlsfingerprint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollect(t *testing.T) {
	req := httptest.NewRequest("GET", "/aitmdetector", nil)
	req.RemoteAddr = "203.0.113.7:51234"
	req.Header.Set("User-Agent", "Mozilla/5.0 Chrome/120")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("X-Forwarded-For", "198.51.100.1")
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	req.Header.Set("Sec-Fetch-Dest", "image")

	r := Collect(req)

	assert.Equal(t, "203.0.113.7:51234", r.RemoteAddr)
	assert.Equal(t, "198.51.100.1", r.ForwardedFor)
	assert.Equal(t, "Mozilla/5.0 Chrome/120", r.UserAgent)
	assert.Equal(t, "HTTP/1.1", r.Proto)
	assert.Equal(t, 5, r.HeaderCount)
	assert.Equal(t, "cross-site", r.SecFetchSite)
	assert.Equal(t, "image", r.SecFetchDest)
	assert.False(t, r.TLS.Available)
	assert.Nil(t, r.TLS.ClientHello)
	assert.NotEmpty(t, r.HTTPHash)
}

func TestCollect_TLS(t *testing.T) {
	req := httptest.NewRequest("GET", "https://detector.example/aitmdetector", nil)
	req.TLS = &tls.ConnectionState{
		Version:            tls.VersionTLS13,
		CipherSuite:        tls.TLS_AES_128_GCM_SHA256,
		NegotiatedProtocol: "h2",
		ServerName:         "detector.example",
	}

	info := Collect(req).TLS

	assert.True(t, info.Available)
	assert.Equal(t, "TLS 1.3", info.Version)
	assert.Equal(t, "TLS_AES_128_GCM_SHA256", info.CipherSuite)
	assert.Equal(t, "h2", info.ALPN)
	assert.Equal(t, "detector.example", info.ServerName)
}

func TestTLSFingerprintContext(t *testing.T) {
	assert.Nil(t, TLSFingerprintFromContext(context.Background()))

	fp := new(tlsfingerprint.Fingerprint)
	ctx := WithTLSFingerprint(context.Background(), fp)
	assert.Same(t, fp, TLSFingerprintFromContext(ctx))

	req := httptest.NewRequest("GET", "/aitmdetector", nil).WithContext(ctx)
	assert.Same(t, fp, Collect(req).TLS.ClientHello)
}

func TestHTTPHash_Format(t *testing.T) {
	req := httptest.NewRequest("GET", "/aitmdetector", nil)
	req.Header.Set("User-Agent", "curl/8.0.1")
	req.Header.Set("Accept", "*/*")

	parts := strings.Split(HTTPHash(req), "_")
	require.Len(t, parts, 4)

	assert.Equal(t, "ge11nn020000", parts[0])
	assert.Len(t, parts[1], 12)
	assert.Equal(t, emptyHash, parts[2])
	assert.Equal(t, emptyHash, parts[3])
}

func TestHTTPHash_RefererAndCookies(t *testing.T) {
	req := httptest.NewRequest("GET", "/aitmdetector", nil)
	req.Header.Set("Referer", "https://login.microsoftonline.com/")
	req.Header.Set("Accept-Language", "de-DE")
	req.AddCookie(&http.Cookie{Name: "esctx", Value: "abc"})

	parts := strings.Split(HTTPHash(req), "_")
	require.Len(t, parts, 4)

	// Referer and Cookie are flagged but not counted
	assert.Equal(t, "ge11cr01dede", parts[0])
	assert.NotEqual(t, emptyHash, parts[2])
	assert.NotEqual(t, emptyHash, parts[3])
}

func TestHTTPHash_Stable(t *testing.T) {
	build := func() string {
		req := httptest.NewRequest("GET", "/aitmdetector", nil)
		req.Header.Set("User-Agent", "Mozilla/5.0")
		req.Header.Set("Accept", "image/avif,image/webp")
		req.Header.Set("Accept-Encoding", "gzip")
		return HTTPHash(req)
	}
	assert.Equal(t, build(), build())
}

func TestHTTPHash_DistinguishesHeaderSets(t *testing.T) {
	a := httptest.NewRequest("GET", "/aitmdetector", nil)
	a.Header.Set("User-Agent", "Mozilla/5.0")

	b := httptest.NewRequest("GET", "/aitmdetector", nil)
	b.Header.Set("User-Agent", "Mozilla/5.0")
	b.Header.Set("X-Forwarded-Proto", "https")

	assert.NotEqual(t, HTTPHash(a), HTTPHash(b))
}

func TestLanguage(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "0000"},
		{"en-US,en;q=0.9", "enus"},
		{"de", "de00"},
		{"fr-CH;q=0.8", "frch"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/", nil)
		if tt.in != "" {
			req.Header.Set("Accept-Language", tt.in)
		}
		assert.Equal(t, tt.want, language(req.Header), tt.in)
	}
}
