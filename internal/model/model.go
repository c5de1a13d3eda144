// Package model defines shared types for the proxy.
package model

import "net/http"

// UpstreamResponse is a fully read upstream response.
type UpstreamResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the upstream answered with a 2xx status.
func (r *UpstreamResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// ErrorBody is the {"error": ...} envelope used by the comment and user routes.
type ErrorBody struct {
	Error string `json:"error"`
}

// MessageBody is the {"message": ...} envelope used by the remaining routes.
type MessageBody struct {
	Message string `json:"message"`
}

// FunFact is the reshaped random fact response.
type FunFact struct {
	Fact string `json:"fact"`
}
