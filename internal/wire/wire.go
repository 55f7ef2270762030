// Package wire defines the fully-formed outbound webhook request handed
// from a format adapter to the delivery transport.
package wire

// Request is immutable once built: target URL, content type and the encoded
// body bytes.
type Request struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}
