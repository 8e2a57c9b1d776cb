package detector

import "strings"

// defaultEntries are the identity-provider origins whose sign-in pages are
// expected to load the detector.
var defaultEntries = []string{
	"https://login.microsoftonline.com/",
	"https://login.microsoft.com/",
	"https://login.microsoft.net/",
	"https://autologon.microsoftazuread-sso.com/",
	"https://tasks.office.com/",
	"https://outlook.office.com/",
	"https://login.windows.net/",
}

// AllowList is an immutable set of trusted referer substrings
type AllowList struct {
	entries []string
}

// NewAllowList creates an allow-list from the given entries.
// The slice is copied, later changes by the caller are not observed.
func NewAllowList(entries ...string) AllowList {
	cp := make([]string, len(entries))
	copy(cp, entries)
	return AllowList{entries: cp}
}

// DefaultAllowList returns the fixed Microsoft sign-in allow-list
func DefaultAllowList() AllowList {
	return NewAllowList(defaultEntries...)
}

// Entries returns a copy of the allow-list entries
func (a AllowList) Entries() []string {
	cp := make([]string, len(a.entries))
	copy(cp, a.entries)
	return cp
}

// Len returns the number of entries
func (a AllowList) Len() int {
	return len(a.entries)
}

// Match returns the first entry contained in referer.
// Matching is case-sensitive substring containment, not prefix matching, so
// "https://evil.example/https://login.microsoftonline.com/" matches too.
func (a AllowList) Match(referer string) (string, bool) {
	for _, entry := range a.entries {
		if strings.Contains(referer, entry) {
			return entry, true
		}
	}
	return "", false
}
