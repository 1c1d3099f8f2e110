package vkapi

import (
	"encoding/json"
	"net/http"

	"vkscraper/pkg/errtable"
)

// Response is a consumed transport response carrying the effective status
// the classification passes derived for it. The original transport status
// survives only as the initial value; classification never mutates a
// Response in place, it derives a new one.
type Response struct {
	StatusCode int
	Reason     string
	Body       []byte
}

func newResponse(status int, body []byte) *Response {
	return &Response{
		StatusCode: status,
		Reason:     http.StatusText(status),
		Body:       body,
	}
}

func (r *Response) success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// envelope is the common shape of VK JSON bodies: a payload under
// "response", batch failures under "execute_errors", or a single logical
// error under "error". Most bodies carry only one of the three.
type envelope struct {
	Response      json.RawMessage     `json:"response"`
	ExecuteErrors []errtable.APIError `json:"execute_errors"`
	Error         *errtable.APIError  `json:"error"`
}

// userEntry is one element of a users.get response.
type userEntry struct {
	ID int64 `json:"id"`
}

// friendsPayload is the payload of a friends.get response. Items is a
// pointer so a missing field is distinguishable from an empty list.
type friendsPayload struct {
	Count int      `json:"count"`
	Items *[]int64 `json:"items"`
}
