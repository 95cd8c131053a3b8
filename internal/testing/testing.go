// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package testing provides tools to test the HTTP API and to serve
// fixtures as HTTP mock responses.
package testing

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kinbiko/jsonassert"
	"github.com/stretchr/testify/require"
)

// Client performs requests on an [http.Handler] using httptest tools.
type Client struct {
	handler http.Handler
	Header  http.Header
}

// NewClient returns a [Client] for the given handler.
func NewClient(handler http.Handler) *Client {
	return &Client{
		handler: handler,
		Header:  http.Header{},
	}
}

// NewRequest creates a new [http.Request].
// body of types [io.Reader], []byte, string or nil are passed as is.
func (c *Client) NewRequest(method, target string, body any) *http.Request {
	var b io.Reader
	switch t := body.(type) {
	case io.Reader:
		b = t
	case []byte:
		b = bytes.NewReader(t)
	case string:
		b = strings.NewReader(t)
	}

	req := httptest.NewRequest(method, target, b)
	for k, v := range c.Header {
		req.Header[k] = v
	}
	return req
}

// Request performs a request and returns a [Response].
func (c *Client) Request(t *testing.T, req *http.Request) *Response {
	t.Helper()
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)

	rsp, err := NewResponse(w)
	require.NoError(t, err)
	return rsp
}

// RT prepares a [RequestTest] and returns a function that receives a [testing.T]
// variable, runs the request and performs the assertions.
func (c *Client) RT(options ...TestOption) func(t *testing.T) {
	return func(t *testing.T) {
		c.Run(t, RT(options...))
	}
}

// Run runs the request from [RequestTest] and performs the assertions.
func (c *Client) Run(t *testing.T, rt *RequestTest) bool {
	return t.Run(rt.Name, func(t *testing.T) {
		req := c.NewRequest(rt.Method, rt.Target, rt.Body)
		for k, v := range rt.Header {
			req.Header[k] = v
		}
		rsp := c.Request(t, req)
		for _, f := range rt.Assert {
			f(t, rsp)
		}
	})
}

type (
	// TestOption is an option for [RequestTest].
	TestOption func(rt *RequestTest)

	// RspAssertion is a [Response] assertion function.
	RspAssertion func(t *testing.T, rsp *Response)

	// RequestTest contains data that are used to perform requests.
	RequestTest struct {
		Name   string
		Method string
		Target string
		Body   any
		Header http.Header
		Assert []RspAssertion
	}
)

// RT creates a new [RequestTest].
func RT(options ...TestOption) *RequestTest {
	rt := &RequestTest{
		Method: http.MethodGet,
		Header: http.Header{},
	}

	for _, f := range options {
		f(rt)
	}

	if rt.Name == "" {
		rt.Name = rt.Method + "[" + rt.Target + "]"
	}

	return rt
}

// WithName sets the [RequestTest.Name].
func WithName(name string) TestOption {
	return func(rt *RequestTest) {
		rt.Name = name
	}
}

// WithMethod sets the [RequestTest.Method].
func WithMethod(method string) TestOption {
	return func(rt *RequestTest) {
		rt.Method = method
	}
}

// WithTarget sets the [RequestTest.Target].
func WithTarget(target string) TestOption {
	return func(rt *RequestTest) {
		rt.Target = target
	}
}

// WithBody sets the [RequestTest.Body].
func WithBody(body any) TestOption {
	return func(rt *RequestTest) {
		rt.Body = body
	}
}

// WithHeader adds a value to [RequestTest.Header].
func WithHeader(name, value string) TestOption {
	return func(rt *RequestTest) {
		rt.Header.Add(name, value)
	}
}

// WithAssert adds an [RspAssertion] to the [RequestTest.Assert].
func WithAssert(assertion RspAssertion) TestOption {
	return func(rt *RequestTest) {
		rt.Assert = append(rt.Assert, assertion)
	}
}

// AssertStatus checks the response's expected status.
func AssertStatus(status int) TestOption {
	return WithAssert(func(t *testing.T, rsp *Response) {
		rsp.AssertStatus(t, status)
	})
}

// AssertContains checks that the response's body contains the expected string.
func AssertContains(expected string) TestOption {
	return WithAssert(func(t *testing.T, rsp *Response) {
		rsp.AssertContains(t, expected)
	})
}

// AssertJSON checks that the response's JSON matches what we expect.
func AssertJSON(expected string) TestOption {
	return WithAssert(func(t *testing.T, rsp *Response) {
		rsp.AssertJSON(t, expected)
	})
}

// Response is a wrapper around http.Response where the body is stored and
// decoded in advance when it's JSON.
type Response struct {
	*http.Response
	Body []byte
	JSON any
}

// NewResponse returns a Response instance based on the ResponseRecorder
// given in input.
func NewResponse(rec *httptest.ResponseRecorder) (*Response, error) {
	var err error
	r := &Response{Response: rec.Result()} //nolint:bodyclose

	r.Body, err = io.ReadAll(r.Response.Body)
	if err != nil {
		return nil, err
	}

	if strings.HasPrefix(r.Header.Get("content-type"), "application/json") {
		if err = json.Unmarshal(r.Body, &r.JSON); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// AssertStatus checks the response's expected status.
func (r *Response) AssertStatus(t *testing.T, expected int) {
	require.Equal(t, expected, r.StatusCode, string(r.Body))
}

// AssertContains checks that the response's body contains the expected string.
func (r *Response) AssertContains(t *testing.T, expected string) {
	require.Contains(t, string(r.Body), expected)
}

// AssertJSON checks that the response's JSON matches what we expect.
func (r *Response) AssertJSON(t *testing.T, expected string) {
	AssertJSONString(t, string(r.Body), expected)
}

// AssertJSONString checks that a JSON document matches what we expect.
// The expected value can use jsonassert's "<<PRESENCE>>" and
// "<<UNORDERED>>" directives.
func AssertJSONString(t *testing.T, actual, expected string) {
	t.Helper()
	jsonassert.New(t).Assertf(actual, "%s", expected)
	if t.Failed() {
		t.Errorf("Received JSON: %s\n", actual)
		t.FailNow()
	}
}
