package detector

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleReferers = []string{
	"https://login.microsoftonline.com/common/oauth2/v2.0/authorize",
	"https://login.microsoft.com/",
	"https://login.microsoft.net/tenant",
	"https://autologon.microsoftazuread-sso.com/winauth",
	"https://tasks.office.com/board",
	"https://outlook.office.com/mail/",
	"https://login.windows.net/common",
	"https://evil.example/https://login.microsoftonline.com/redirect",
	"https://login.microsoftonline.co/",
	"https://LOGIN.MICROSOFTONLINE.COM/",
	"http://login.microsoftonline.com/",
	"https://phish.example/login",
	"",
}

func TestDefaultAllowList(t *testing.T) {
	list := DefaultAllowList()
	require.Equal(t, 7, list.Len())
	assert.Equal(t, "https://login.microsoftonline.com/", list.Entries()[0])
	assert.Equal(t, "https://login.windows.net/", list.Entries()[6])
}

func TestAllowListIsImmutable(t *testing.T) {
	entries := []string{"https://a.example/"}
	list := NewAllowList(entries...)
	entries[0] = "https://b.example/"

	assert.Equal(t, []string{"https://a.example/"}, list.Entries())

	got := list.Entries()
	got[0] = "mutated"
	assert.Equal(t, "https://a.example/", list.Entries()[0])
}

func TestClassify(t *testing.T) {
	list := DefaultAllowList()

	tests := []struct {
		name    string
		referer string
		present bool
		want    Verdict
	}{
		{"missing", "", false, VerdictUntrusted},
		{"empty header", "", true, VerdictUntrusted},
		{"microsoftonline", "https://login.microsoftonline.com/common/oauth2", true, VerdictTrusted},
		{"outlook", "https://outlook.office.com/mail/inbox", true, VerdictTrusted},
		{"autologon", "https://autologon.microsoftazuread-sso.com/", true, VerdictTrusted},
		{"phishing proxy", "https://login.micros0ftonline.example/", true, VerdictUntrusted},
		{"embedded substring", "https://evil.com/https://login.microsoftonline.com/redirect", true, VerdictTrusted},
		{"case sensitive", "https://LOGIN.MICROSOFTONLINE.COM/", true, VerdictUntrusted},
		{"plain http", "http://login.microsoftonline.com/", true, VerdictUntrusted},
		{"missing trailing slash", "https://login.microsoftonline.com", true, VerdictUntrusted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.referer, tt.present, list))
		})
	}
}

func TestClassify_EmptyAllowList(t *testing.T) {
	list := NewAllowList()
	assert.Equal(t, VerdictUntrusted, Classify("https://login.microsoftonline.com/", true, list))
}

func TestClassify_OrderIndependent(t *testing.T) {
	base := DefaultAllowList().Entries()

	want := make(map[string]Verdict, len(sampleReferers))
	for _, ref := range sampleReferers {
		want[ref] = Classify(ref, true, DefaultAllowList())
	}

	count := 0
	permute(base, func(p []string) {
		count++
		list := NewAllowList(p...)
		for _, ref := range sampleReferers {
			if got := Classify(ref, true, list); got != want[ref] {
				t.Fatalf("permutation %v: Classify(%q) = %s, want %s", p, ref, got, want[ref])
			}
		}
	})
	assert.Equal(t, 5040, count)
}

func TestInspect(t *testing.T) {
	d := New(DefaultAllowList())

	t.Run("no referer", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/aitmdetector", nil)
		res := d.Inspect(req)

		assert.Equal(t, VerdictUntrusted, res.Verdict)
		assert.False(t, res.RefererPresent)
		assert.Empty(t, res.MatchedEntry)
		assert.NotEmpty(t, res.RequestID)
		assert.False(t, res.Timestamp.IsZero())
	})

	t.Run("empty referer", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/aitmdetector", nil)
		req.Header["Referer"] = []string{""}
		res := d.Inspect(req)

		assert.Equal(t, VerdictUntrusted, res.Verdict)
		assert.True(t, res.RefererPresent)
	})

	t.Run("trusted referer", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/aitmdetector", nil)
		req.Header.Set("Referer", "https://login.windows.net/common/login")
		res := d.Inspect(req)

		assert.True(t, res.Trusted())
		assert.Equal(t, "https://login.windows.net/", res.MatchedEntry)
		assert.Equal(t, "https://login.windows.net/common/login", res.Referer)
	})

	t.Run("untrusted referer", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/aitmdetector", nil)
		req.Header.Set("Referer", "https://login.evilginx.example/")
		res := d.Inspect(req)

		assert.False(t, res.Trusted())
		assert.True(t, res.RefererPresent)
	})

	t.Run("unique request ids", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/aitmdetector", nil)
		assert.NotEqual(t, d.Inspect(req).RequestID, d.Inspect(req).RequestID)
	})
}

func TestInspectAgreesWithClassify(t *testing.T) {
	d := New(DefaultAllowList())
	for _, ref := range sampleReferers {
		req := httptest.NewRequest("GET", "/aitmdetector", nil)
		req.Header.Set("Referer", ref)
		assert.Equal(t, Classify(ref, true, d.AllowList()), d.Inspect(req).Verdict, ref)
	}
}

// permute calls fn with every permutation of items (Heap's algorithm)
func permute(items []string, fn func([]string)) {
	a := make([]string, len(items))
	copy(a, items)

	var generate func(k int)
	generate = func(k int) {
		if k == 1 {
			fn(a)
			return
		}
		generate(k - 1)
		for i := 0; i < k-1; i++ {
			if k%2 == 0 {
				a[i], a[k-1] = a[k-1], a[i]
			} else {
				a[0], a[k-1] = a[k-1], a[0]
			}
			generate(k - 1)
		}
	}
	generate(len(a))
}
