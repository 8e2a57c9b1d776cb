package fingerprint

import "github.com/psanford/tlsfingerprint"

// Requester describes who fetched the detector, for operator diagnosis.
// None of it influences the verdict.
type Requester struct {
	RemoteAddr   string  `json:"remote_addr"`
	ForwardedFor string  `json:"forwarded_for,omitempty"` // X-Forwarded-For, as sent
	UserAgent    string  `json:"user_agent"`
	AcceptLang   string  `json:"accept_lang,omitempty"`
	Proto        string  `json:"proto"`        // HTTP/1.1, HTTP/2.0
	HeaderCount  int     `json:"header_count"` // Total header count
	HTTPHash     string  `json:"http_hash"`    // JA4H-style header fingerprint
	SecFetchSite string  `json:"sec_fetch_site,omitempty"`
	SecFetchDest string  `json:"sec_fetch_dest,omitempty"`
	TLS          TLSInfo `json:"tls"`
}

// TLSInfo contains negotiated TLS parameters and, when the server runs
// behind the fingerprint listener, the client's ClientHello fingerprint
type TLSInfo struct {
	Available   bool                        `json:"available"`
	Version     string                      `json:"version,omitempty"`      // e.g. "TLS 1.3"
	CipherSuite string                      `json:"cipher_suite,omitempty"` // Negotiated cipher suite
	ALPN        string                      `json:"alpn,omitempty"`         // h2, http/1.1
	ServerName  string                      `json:"server_name,omitempty"`  // SNI hostname
	ClientHello *tlsfingerprint.Fingerprint `json:"client_hello,omitempty"`
}
