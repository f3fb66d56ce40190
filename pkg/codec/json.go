package codec

import (
	"encoding/json"
	"io"
	"net/http"
)

// JSONCodec implements Codec over encoding/json.
type JSONCodec[T any, U any] struct{}

// NewJSONCodec creates a JSON codec for the given request/response types.
func NewJSONCodec[T any, U any]() *JSONCodec[T, U] {
	return &JSONCodec[T, U]{}
}

// NewRequest creates a zero-value instance of the request type.
func (c *JSONCodec[T, U]) NewRequest() T {
	var data T
	return data
}

// Decode reads and unmarshals the request body into T. The body is closed
// after reading.
func (c *JSONCodec[T, U]) Decode(r *http.Request) (T, error) {
	data := c.NewRequest()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return data, err
	}
	defer r.Body.Close()

	if err := json.Unmarshal(body, &data); err != nil {
		var zero T
		return zero, err
	}
	return data, nil
}

// DecodeBytes unmarshals a byte slice into T.
func (c *JSONCodec[T, U]) DecodeBytes(body []byte) (T, error) {
	data := c.NewRequest()
	if err := json.Unmarshal(body, &data); err != nil {
		var zero T
		return zero, err
	}
	return data, nil
}

// Encode marshals resp as JSON and writes it with the JSON content type.
func (c *JSONCodec[T, U]) Encode(w http.ResponseWriter, resp U) error {
	w.Header().Set("Content-Type", "application/json")
	body, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}

var _ Codec[any, any] = (*JSONCodec[any, any])(nil)
