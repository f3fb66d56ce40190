// Package codec provides encoding and decoding for request and response
// payloads. The framework ships a JSON implementation; alternative wire
// formats can plug in behind the same interface.
package codec

import "net/http"

// Codec marshals responses and unmarshals requests. T is the request type
// and U the response type.
type Codec[T any, U any] interface {
	// NewRequest creates a zero-value instance of the request type.
	NewRequest() T

	// Decode deserializes the HTTP request body into a value of type T.
	Decode(r *http.Request) (T, error)

	// DecodeBytes deserializes a byte slice into a value of type T.
	DecodeBytes(data []byte) (T, error)

	// Encode serializes resp and writes it to the response, setting the
	// appropriate Content-Type header.
	Encode(w http.ResponseWriter, resp U) error
}
