// ABOUTME: HTTP round tripper attaching the bearer credential to requests
// ABOUTME: Reports authorization failures to the session error handler

package client

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
)

// TokenSource supplies the current bearer credential. Implemented by the
// session token store.
type TokenSource interface {
	BearerToken() string
}

// AuthErrorHandler reacts to authorization failures observed on any
// response. Implemented by the session manager.
type AuthErrorHandler interface {
	HandleAuthError(err error)
}

// AuthTransport decorates outgoing requests with the stored bearer
// credential and a correlation ID. Responses signalling an authorization
// failure fire the error handler as a side effect; the response itself is
// always passed through unchanged.
type AuthTransport struct {
	base   http.RoundTripper
	tokens TokenSource

	mu      sync.RWMutex
	handler AuthErrorHandler
}

// NewAuthTransport wraps the given base transport.
func NewAuthTransport(base http.RoundTripper, tokens TokenSource) *AuthTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &AuthTransport{base: base, tokens: tokens}
}

// SetErrorHandler registers the authorization failure handler. Registered
// after the session manager is constructed; the transport works without
// one.
func (t *AuthTransport) SetErrorHandler(h AuthErrorHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handler = h
}

func (t *AuthTransport) errorHandler() AuthErrorHandler {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.handler
}

// RoundTrip implements http.RoundTripper.
func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())

	// An explicit Authorization header (Basic login, Bearer renewal) wins
	// over the stored credential.
	if clone.Header.Get("Authorization") == "" && t.tokens != nil {
		if token := t.tokens.BearerToken(); token != "" {
			clone.Header.Set("Authorization", "Bearer "+token)
		}
	}
	if clone.Header.Get("X-Request-ID") == "" {
		clone.Header.Set("X-Request-ID", uuid.NewString())
	}

	resp, err := t.base.RoundTrip(clone)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		if h := t.errorHandler(); h != nil {
			h.HandleAuthError(&APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)})
		}
	}

	return resp, nil
}
