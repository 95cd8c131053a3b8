// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

package httpclient_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/require"

	"codeberg.org/readeck/microdata/internal/httpclient"
)

type echoResponse struct {
	URL    string
	Method string
	Header http.Header
}

func mockTransport(client *http.Client) {
	mt := httpmock.NewMockTransport()
	mt.RegisterResponder("GET", `=~.*`,
		func(req *http.Request) (*http.Response, error) {
			return httpmock.NewJsonResponse(200, echoResponse{
				URL:    req.URL.String(),
				Method: req.Method,
				Header: req.Header,
			})
		})

	client.Transport.(*httpclient.Transport).RoundTripper = mt
}

func get(t *testing.T, client *http.Client, req *http.Request) echoResponse {
	t.Helper()
	rsp, err := client.Do(req)
	require.NoError(t, err)
	defer rsp.Body.Close() //nolint:errcheck

	var data echoResponse
	require.NoError(t, json.NewDecoder(rsp.Body).Decode(&data))
	return data
}

func TestClient(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		assert := require.New(t)
		client := httpclient.New()
		mockTransport(client)

		req, _ := http.NewRequest(http.MethodGet, "https://example.net/", nil)
		data := get(t, client, req)

		assert.Equal("https://example.net/", data.URL)
		assert.Equal("GET", data.Method)
		assert.Equal(httpclient.DefaultUserAgent, data.Header.Get("User-Agent"))
		assert.Contains(data.Header.Get("Accept"), "text/html")
		assert.Equal(20*time.Second, client.Timeout)
	})

	t.Run("request headers win", func(t *testing.T) {
		client := httpclient.New()
		mockTransport(client)

		req, _ := http.NewRequest(http.MethodGet, "https://example.net/", nil)
		req.Header.Set("Accept", "text/plain")
		data := get(t, client, req)

		require.Equal(t, "text/plain", data.Header.Get("Accept"))
		require.Equal(t, "text/plain", req.Header.Get("Accept"))
		require.Empty(t, req.Header.Get("User-Agent"))
	})

	t.Run("options", func(t *testing.T) {
		assert := require.New(t)
		client := httpclient.New(
			httpclient.WithTimeout(3*time.Second),
			httpclient.WithUserAgent("test/1.0"),
			httpclient.WithTimeout(0),
		)
		mockTransport(client)

		req, _ := http.NewRequest(http.MethodGet, "https://example.net/", nil)
		data := get(t, client, req)

		assert.Equal("test/1.0", data.Header.Get("User-Agent"))
		assert.Equal(3*time.Second, client.Timeout)
	})

	t.Run("SetHeader", func(t *testing.T) {
		client := httpclient.New()
		mockTransport(client)

		client.Transport.(*httpclient.Transport).SetHeader(func(h http.Header) {
			h.Set("x-test", "abc")
		})

		req, _ := http.NewRequest(http.MethodGet, "https://example.net/", nil)
		data := get(t, client, req)
		require.Equal(t, "abc", data.Header.Get("x-test"))
	})
}
