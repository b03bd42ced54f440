package apiclient

import (
	"encoding/json"
	"fmt"
)

// Envelope is the backend's uniform {success, data, message} wrapper.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`

	Status int `json:"-"`
}

// Decode unwraps data into v. A null or absent payload leaves v untouched.
func (e *Envelope) Decode(v interface{}) error {
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

// Err converts a success:false envelope into a *BusinessError.
func (e *Envelope) Err() error {
	if e.Success {
		return nil
	}
	return &BusinessError{Message: e.Message, Status: e.Status}
}

// Blob is a binary response passed through untouched.
type Blob struct {
	Data               []byte
	ContentType        string
	ContentDisposition string
}
