// Package types holds the JSON shapes shared by every HTTP response.
package types

// Envelope wraps every 2xx JSON body. Meta is omitted unless a listing sets it.
type Envelope struct {
	Data any `json:"data"`
	Meta any `json:"meta,omitempty"`
}

// ListMeta is the meta of a listing.
type ListMeta struct {
	Total int `json:"total"`
}

// Failure wraps every error body.
type Failure struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}
