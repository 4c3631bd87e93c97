package domain_test

import (
	"testing"

	"github.com/rgdevment/urlinfo/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecompose(t *testing.T) {
	cases := []struct {
		Name     string
		Segments []string
		Want     domain.Query
	}{
		{
			Name:     "host only",
			Segments: []string{"example.com"},
			Want:     domain.Query{Domain: "example.com", URI: "/"},
		},
		{
			Name:     "host with port and deep path",
			Segments: []string{"example.com:80", "path", "to", "page"},
			Want:     domain.Query{Domain: "example.com:80", URI: "/path/to/page"},
		},
		{
			Name:     "trailing slash keeps root uri",
			Segments: []string{"example.com", ""},
			Want:     domain.Query{Domain: "example.com", URI: "/"},
		},
		{
			Name:     "empty inner segments are preserved",
			Segments: []string{"example.com", "a", "", "b"},
			Want:     domain.Query{Domain: "example.com", URI: "/a//b"},
		},
		{
			Name:     "empty host still decomposes",
			Segments: []string{"", "path"},
			Want:     domain.Query{Domain: "", URI: "/path"},
		},
		{
			Name:     "query-like text stays in uri",
			Segments: []string{"example.com", "search?q=1"},
			Want:     domain.Query{Domain: "example.com", URI: "/search?q=1"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			got, err := domain.Decompose(tc.Segments)
			require.NoError(t, err)
			assert.Equal(t, tc.Want, got)
			assert.NotContains(t, got.Domain, "/")
			assert.Equal(t, "/", got.URI[:1])
		})
	}
}

func TestDecompose_Malformed(t *testing.T) {
	_, err := domain.Decompose(nil)
	assert.ErrorIs(t, err, domain.ErrMalformedPath)

	_, err = domain.Decompose([]string{})
	assert.ErrorIs(t, err, domain.ErrMalformedPath)

	// An unescaped %2F in the host segment.
	_, err = domain.Decompose([]string{"evil.com/x", "y"})
	assert.ErrorIs(t, err, domain.ErrMalformedPath)
}

func TestSplitEscaped(t *testing.T) {
	cases := []struct {
		Name string
		In   string
		Want []string
	}{
		{"plain", "evil.com/a/b", []string{"evil.com", "a", "b"}},
		{"space", "evil.com/a%20b", []string{"evil.com", "a b"}},
		{"utf-8", "evil.com/caf%C3%A9", []string{"evil.com", "café"}},
		{"escaped slash stays in segment", "evil.com/a%2Fb", []string{"evil.com", "a/b"}},
		{"plus is literal", "evil.com/a+b", []string{"evil.com", "a+b"}},
		{"idn host", "%D0%BF%D1%80%D0%B8%D0%BC%D0%B5%D1%80.%D1%80%D1%84", []string{"пример.рф"}},
	}

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			got, err := domain.SplitEscaped(tc.In)
			require.NoError(t, err)
			assert.Equal(t, tc.Want, got)
		})
	}
}

func TestSplitEscaped_BadEscape(t *testing.T) {
	_, err := domain.SplitEscaped("evil.com/%zz")
	assert.ErrorIs(t, err, domain.ErrMalformedPath)
}

func TestQueryURL(t *testing.T) {
	q := domain.Query{Domain: "example.com:80", URI: "/path/to/page"}
	assert.Equal(t, "example.com:80/path/to/page", q.URL())

	r := domain.NewRecord("evil.com", "/x", "  BAD ")
	assert.Equal(t, "BAD", r.Result)
	assert.Equal(t, "evil.com/x", r.URL())
}

func TestCanonicalDomain(t *testing.T) {
	cases := []struct {
		In   string
		Want string
	}{
		{"Example.COM", "example.com"},
		{"Example.com:8080", "example.com:8080"},
		{"ПрИмер.Рф", "xn--e1afmkfd.xn--p1ai"},
		{"[2001:DB8::1]:443", "[2001:db8::1]:443"},
	}

	for _, tc := range cases {
		t.Run(tc.In, func(t *testing.T) {
			got, err := domain.CanonicalDomain(tc.In)
			require.NoError(t, err)
			assert.Equal(t, tc.Want, got)
		})
	}
}
