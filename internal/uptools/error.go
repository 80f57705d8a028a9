package uptools

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Error kinds, stored verbatim in the log and used for statistics.
const (
	KindConfiguration = "Configuration Error"
	KindValidation    = "Validation Error"
	KindConnection    = "Connection Error"
	KindAPI           = "API Error"
)

// ErrAPIKeyRequired is returned by ValidateKey without a key.
var ErrAPIKeyRequired = errors.New("API key is required")

// Error is a failed send. It marshals to the JSON kept in the email log.
type Error struct {
	Code     int      `json:"code"`
	Kind     string   `json:"error"`
	Message  string   `json:"message"`
	Time     int64    `json:"time,omitempty"`
	Request  *Request `json:"request,omitempty"`
	Response any      `json:"response,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.Code, e.Message)
}

// JSON returns the pretty-printed error document.
func (e *Error) JSON() string {
	out, err := json.MarshalIndent(e, "", "    ")
	if err != nil {
		return fmt.Sprintf(`{"code":%d,"error":%q,"message":%q}`, e.Code, e.Kind, e.Message)
	}

	return string(out)
}

// AsError extracts an *Error from err, wrapping foreign errors as "API Error" with code 500.
func AsError(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	return &Error{Code: 500, Kind: KindAPI, Message: err.Error()} //nolint:mnd
}
