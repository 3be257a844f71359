package semantic

import (
	"io"
	"static-httpd/application/http"
	"static-httpd/application/util/uri"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawRequest(method, target string, ver http.Version, fields ...string) *http.Request {
	raw := &http.Request{
		RequestLine: http.RequestLine{Method: method, Target: target, Version: ver},
		Body:        strings.NewReader(""),
	}
	for i := 0; i+1 < len(fields); i += 2 {
		raw.Headers = append(raw.Headers, http.Field{Name: []byte(fields[i]), Value: []byte(fields[i+1])})
	}
	return raw
}

func TestRequestFrom(t *testing.T) {
	raw := rawRequest("GET", "/docs/a%20b.html?lang=en", http.Version{1, 1},
		"host", "Example.com:8080",
		"Accept", "text/html",
	)

	r, err := RequestFrom(raw, ParseRequestOptions{})
	require.NoError(t, err)

	assert.Equal(t, MethodGet, r.Method)
	assert.Equal(t, http.Version{1, 1}, r.Version)
	assert.Equal(t, "/docs/a b.html", r.URI.Path)
	require.NotNil(t, r.URI.Query)
	assert.Equal(t, "lang=en", *r.URI.Query)
	assert.Equal(t, "example.com", r.Host)
	assert.Nil(t, r.ContentLength)

	accept, _ := r.Headers.Get("accept")
	assert.Equal(t, "text/html", accept)

	b, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	assert.Empty(t, b)
}

func TestRequestFromUnknownMethod(t *testing.T) {
	r, err := RequestFrom(rawRequest("BREW", "/pot", http.Version{1, 1}), ParseRequestOptions{})
	require.NoError(t, err)
	assert.Equal(t, Method("BREW"), r.Method)
}

func TestRequestFromVersion(t *testing.T) {
	testdata := []struct {
		ver      http.Version
		versions []http.Version
		wantErr  bool
	}{
		{ver: http.Version{1, 1}},
		{ver: http.Version{1, 0}},
		{ver: http.Version{0, 9}, wantErr: true},
		{ver: http.Version{2, 0}, wantErr: true},
		{ver: http.Version{1, 0}, versions: []http.Version{{1, 1}}, wantErr: true},
	}

	for _, td := range testdata {
		t.Run(td.ver.String(), func(t *testing.T) {
			_, err := RequestFrom(rawRequest("GET", "/", td.ver), ParseRequestOptions{SupportedVersions: td.versions})
			if td.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedVersion)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRequestFromTarget(t *testing.T) {
	testdata := []struct {
		target  string
		path    string
		host    string
		wantErr error
	}{
		{target: "/", path: "/"},
		{target: "/a/../b", path: "/a/../b"},
		{target: "/%2e%2e/etc/passwd", path: "/../etc/passwd"},
		{target: "http://Example.com", path: "/", host: "example.com"},
		{target: "http://example.com:80/x", path: "/x", host: "example.com"},
		{target: "https://example.com/x?y", path: "/x", host: "example.com"},
		{target: "*", wantErr: ErrUnsupportedTarget},
		{target: "example.com:443", wantErr: ErrInvalidTarget},
		{target: "index.html", wantErr: ErrInvalidTarget},
		{target: "ftp://example.com/x", wantErr: ErrInvalidTarget},
		{target: "http:/x", wantErr: ErrInvalidTarget},
		{target: "//example.com/x", wantErr: ErrInvalidTarget},
		{target: "/x#frag", wantErr: ErrInvalidTarget},
		{target: "/%zz", wantErr: ErrInvalidTarget},
	}

	for _, td := range testdata {
		t.Run(td.target, func(t *testing.T) {
			r, err := RequestFrom(rawRequest("GET", td.target, http.Version{1, 1}), ParseRequestOptions{})
			if td.wantErr != nil {
				assert.ErrorIs(t, err, td.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, td.path, r.URI.Path)
			assert.Equal(t, td.host, r.Host)
		})
	}
}

func TestRequestFromURITooLong(t *testing.T) {
	target := "/" + strings.Repeat("a", 99)

	_, err := RequestFrom(rawRequest("GET", target, http.Version{1, 1}), ParseRequestOptions{MaxURILen: 99})
	assert.ErrorIs(t, err, ErrURITooLong)

	_, err = RequestFrom(rawRequest("GET", target, http.Version{1, 1}), ParseRequestOptions{MaxURILen: 100})
	assert.NoError(t, err)
}

func TestRequestFromHost(t *testing.T) {
	testdata := []struct {
		desc    string
		target  string
		fields  []string
		host    string
		wantErr error
	}{
		{desc: "no host", target: "/"},
		{desc: "host field", target: "/", fields: []string{"Host", "localhost:8080"}, host: "localhost"},
		{desc: "ip literal", target: "/", fields: []string{"Host", "[::1]:8080"}, host: "[::1]"},
		{desc: "target wins", target: "http://a.example/", fields: []string{"Host", "b.example"}, host: "a.example"},
		{desc: "two hosts", target: "/", fields: []string{"Host", "a", "Host", "b"}, wantErr: ErrInvalidHost},
		{desc: "bad port", target: "/", fields: []string{"Host", "a:port"}, wantErr: ErrInvalidHost},
		{desc: "userinfo", target: "/", fields: []string{"Host", "me@a"}, wantErr: ErrInvalidHost},
	}

	for _, td := range testdata {
		t.Run(td.desc, func(t *testing.T) {
			r, err := RequestFrom(rawRequest("GET", td.target, http.Version{1, 1}, td.fields...), ParseRequestOptions{})
			if td.wantErr != nil {
				assert.ErrorIs(t, err, td.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, td.host, r.Host)

			if td.host != "" {
				v, _ := r.Headers.Get("Host")
				assert.Contains(t, v, td.host)
			}
		})
	}
}

func TestRequestFromContentLength(t *testing.T) {
	r, err := RequestFrom(rawRequest("POST", "/", http.Version{1, 1}, "Content-Length", "5"), ParseRequestOptions{})
	require.NoError(t, err)
	require.NotNil(t, r.ContentLength)
	assert.Equal(t, uint(5), *r.ContentLength)

	_, err = RequestFrom(rawRequest("POST", "/", http.Version{1, 1}, "Content-Length", "five"), ParseRequestOptions{})
	assert.ErrorIs(t, err, ErrInvalidContentLength)
}

func TestNormalize(t *testing.T) {
	port := uint16(8080)
	u := normalize(uri.URI{Scheme: "http", Authority: &uri.Authority{Host: "a", Port: &port}})

	assert.Equal(t, "/", u.Path)
	require.NotNil(t, u.Authority.Port)
	assert.Equal(t, uint16(8080), *u.Authority.Port)

	https := uint16(443)
	u = normalize(uri.URI{Scheme: "https", Authority: &uri.Authority{Host: "a", Port: &https}, Path: "/x"})
	assert.Nil(t, u.Authority.Port)
	assert.Equal(t, "/x", u.Path)
}
