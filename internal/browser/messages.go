package browser

import (
	"encoding/json"
	"fmt"
)

// request is a DevTools protocol command frame.
type request struct {
	ID     int64  `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

// response is a DevTools protocol reply or event frame. Events carry Method
// and no ID.
type response struct {
	ID     int64           `json:"id"`
	Method string          `json:"method,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *commandError   `json:"error,omitempty"`
}

// commandError is the error object attached to a failed command.
type commandError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *commandError) Error() string {
	return fmt.Sprintf("devtools error %d: %s", e.Code, e.Message)
}

// targetInfo describes one debuggable target from /json/list.
type targetInfo struct {
	Type                 string `json:"type"`
	Title                string `json:"title"`
	URL                  string `json:"url"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// evaluateParams are the arguments to Runtime.evaluate.
type evaluateParams struct {
	Expression    string `json:"expression"`
	ReturnByValue bool   `json:"returnByValue"`
}

// evaluateResult is the reply shape of Runtime.evaluate.
type evaluateResult struct {
	Result struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value,omitempty"`
	} `json:"result"`
	ExceptionDetails *struct {
		Text      string `json:"text"`
		Exception *struct {
			Description string `json:"description"`
		} `json:"exception,omitempty"`
	} `json:"exceptionDetails,omitempty"`
}

// setDownloadBehaviorParams are the arguments to Page.setDownloadBehavior.
type setDownloadBehaviorParams struct {
	Behavior     string `json:"behavior"`
	DownloadPath string `json:"downloadPath"`
}
