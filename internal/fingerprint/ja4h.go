package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

const emptyHash = "000000000000"

// HTTPHash computes a JA4H-style fingerprint: {prefix}_{headers}_{cookie names}_{cookies}.
// AiTM proxy kits forward the victim's headers through their own HTTP stack,
// which tends to show up as a different header set for the same User-Agent.
//
// Go's http.Header does not keep wire order, so header names are sorted.
//
// Reference: https://github.com/FoxIO-LLC/ja4/blob/main/technical_details/JA4H.md
func HTTPHash(r *http.Request) string {
	cookies := r.Cookies()

	cookieNames := make([]string, 0, len(cookies))
	cookiePairs := make([]string, 0, len(cookies))
	for _, c := range cookies {
		cookieNames = append(cookieNames, c.Name)
		cookiePairs = append(cookiePairs, c.Name+"="+c.Value)
	}

	return strings.Join([]string{
		httpPrefix(r, len(cookies) > 0),
		headerHash(r.Header),
		hashList(cookieNames),
		hashList(cookiePairs),
	}, "_")
}

// httpPrefix is {method}{version}{cookie}{referer}{header count}{language},
// e.g. ge20nr14enus
func httpPrefix(r *http.Request, hasCookies bool) string {
	method := strings.ToLower(r.Method)
	if len(method) < 2 {
		method += strings.Repeat("0", 2-len(method))
	}

	version := "11"
	switch r.ProtoMajor {
	case 2:
		version = "20"
	case 3:
		version = "30"
	}

	cookie := "n"
	if hasCookies {
		cookie = "c"
	}

	referer := "n"
	if _, ok := r.Header["Referer"]; ok {
		referer = "r"
	}

	return fmt.Sprintf("%s%s%s%s%02d%s", method[:2], version, cookie, referer, headerCount(r.Header), language(r.Header))
}

// headerCount excludes Cookie and Referer and caps at 99
func headerCount(h http.Header) int {
	n := 0
	for name := range h {
		if name == "Cookie" || name == "Referer" {
			continue
		}
		n++
	}
	return min(n, 99)
}

func language(h http.Header) string {
	lang, _, _ := strings.Cut(h.Get("Accept-Language"), ",")
	lang, _, _ = strings.Cut(lang, ";")
	lang = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(lang), "-", ""))
	if len(lang) < 4 {
		lang += strings.Repeat("0", 4-len(lang))
	}
	return lang[:4]
}

// headerHash hashes sorted header names followed by their first values
func headerHash(h http.Header) string {
	names := make([]string, 0, len(h))
	for name := range h {
		if name == "Cookie" || name == "Referer" {
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return emptyHash
	}
	sort.Strings(names)

	values := make([]string, 0, len(names))
	for _, name := range names {
		if v := h.Get(name); v != "" {
			values = append(values, v)
		}
	}
	return truncatedSHA256(strings.Join(names, ",") + strings.Join(values, ","))
}

func hashList(items []string) string {
	if len(items) == 0 {
		return emptyHash
	}
	sorted := make([]string, len(items))
	copy(sorted, items)
	sort.Strings(sorted)
	return truncatedSHA256(strings.Join(sorted, ","))
}

func truncatedSHA256(data string) string {
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])[:12]
}
