// SPDX-FileCopyrightText: © 2020 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// Message is a JSON message response.
type Message struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// Error is an error with an HTTP status code.
type Error struct {
	Status int
	Err    error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode returns the error's status code.
func (e *Error) StatusCode() int {
	return e.Status
}

// Render converts any value to JSON and sends the response.
func Render(w http.ResponseWriter, r *http.Request, status int, value any) {
	b := &bytes.Buffer{}
	enc := json.NewEncoder(b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		Log(r).Error("encoding error", slog.Any("err", err))
		http.Error(w, http.StatusText(500), 500)
		return
	}

	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	}
	if status >= 100 {
		w.WriteHeader(status)
	}
	w.Write(b.Bytes()) //nolint:errcheck
}

// TextMsg sends a JSON formatted message response with a status and a message.
func TextMsg(w http.ResponseWriter, r *http.Request, status int, msg string) {
	Render(w, r, status, Message{
		Status:  status,
		Message: msg,
	})
}

// Err renders an error as a JSON message.
// When the error provides a StatusCode() method, it gives the response
// status and the error message is sent. Otherwise it's a 500 response and
// the error is only logged.
func Err(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	var maxBytes *http.MaxBytesError
	var e interface{ StatusCode() int }

	switch {
	case errors.As(err, &maxBytes):
		status = http.StatusRequestEntityTooLarge
	case errors.As(err, &e):
		status = e.StatusCode()
	default:
		Log(r).Error("server error", slog.Any("err", err))
		TextMsg(w, r, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	Log(r).Warn(http.StatusText(status), slog.Any("err", err))
	TextMsg(w, r, status, err.Error())
}
