package fetcher

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMediaType(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"image/png", "image/png"},
		{"IMAGE/PNG", "image/png"},
		{"image/jpeg; charset=utf-8", "image/jpeg"},
		{"image/svg+xml;charset=US-ASCII", "image/svg+xml"},
		{"", ""},
		{"text/html; q=", "text/html"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, mediaType(tc.header), "header %q", tc.header)
	}
}

func TestFilenameFromHeader(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   string
	}{
		{"quoted", `attachment; filename="cat photo.jpg"`, "cat photo.jpg"},
		{"bare token", `attachment; filename=cat.jpg`, "cat.jpg"},
		{"rfc5987", `attachment; filename*=UTF-8''na%C3%AFve.jpg`, "naïve.jpg"},
		{"no filename", "inline", ""},
		{"empty header", "", ""},
		{"empty filename", `attachment; filename=""`, ""},
		{"loose fallback", `attachment; filename=un quoted.jpg`, "un quoted.jpg"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, filenameFromHeader(tc.header))
		})
	}
}

func TestDeclaredLength(t *testing.T) {
	length, ok := declaredLength("1234")
	require.True(t, ok)
	require.Equal(t, int64(1234), length)

	length, ok = declaredLength(" 42 ")
	require.True(t, ok)
	require.Equal(t, int64(42), length)

	for _, header := range []string{"", "banana", "-5", "12.5"} {
		_, ok := declaredLength(header)
		require.False(t, ok, "header %q", header)
	}
}
