package httpx

import (
	"net/http"
	"strings"

	"github.com/go-chi/render"
)

// Envelope mirrors the upstream response convention so JSON clients of the
// dashboard see the same shape as the API behind it.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	render.Status(r, status)
	render.JSON(w, r, Envelope{Success: status < 400, Data: data})
}

// JSONWithMessage is JSON with a notification for the client, such as the
// reason a stale copy of the data is being served.
func JSONWithMessage(w http.ResponseWriter, r *http.Request, status int, msg string, data any) {
	render.Status(r, status)
	render.JSON(w, r, Envelope{Success: status < 400, Data: data, Message: msg})
}

func JSONError(w http.ResponseWriter, r *http.Request, status int, msg string, details any) {
	render.Status(r, status)
	render.JSON(w, r, Envelope{Success: false, Message: msg, Details: details})
}

// WantsJSON reports whether the client asked for JSON and not HTML.
func WantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}
