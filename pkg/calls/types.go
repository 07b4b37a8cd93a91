package calls

import (
	"encoding/json"
	"fmt"
)

// Error codes carried in Response.Error.Code.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeUnknownMethod  = -32601
	CodeInvalidParams  = -32602
	CodeInternal       = -32603
)

// Request is the wire format the UI posts to the bridge.
type Request struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response is the wire format returned to the UI.
type Response struct {
	ID     json.RawMessage `json:"id,omitempty"`
	OK     bool            `json:"ok"`
	Result any             `json:"result,omitempty"`
	Error  *Error          `json:"error,omitempty"`
}

// Error is a coded failure. Handlers may return one to pick the code;
// any other error is reported as CodeInternal.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("call error %d: %s", e.Code, e.Message)
}

// InvalidParams wraps err as a CodeInvalidParams error.
func InvalidParams(err error) *Error {
	return &Error{Code: CodeInvalidParams, Message: err.Error()}
}

// DecodeParams unmarshals params into v, reporting failures as invalid params.
func DecodeParams(params json.RawMessage, v any) error {
	if len(params) == 0 {
		return &Error{Code: CodeInvalidParams, Message: "missing params"}
	}
	if err := json.Unmarshal(params, v); err != nil {
		return InvalidParams(err)
	}
	return nil
}
