// Package display maps liveness tokens onto the two presentations a
// rendering surface may show: healthy (with the token text) or unreachable.
package display

// Unreachable is the fixed message shown whenever there is no liveness token.
const Unreachable = "Receiver is not running, please check or reconnect."

// View is the render-ready form of a liveness token.
type View struct {
	Healthy bool   `json:"healthy"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message"`
}

// Render maps token to its View. A non-empty token is healthy and its
// message is the literal token text; an empty token is unreachable.
func Render(token string) View {
	if token == "" {
		return View{Healthy: false, Message: Unreachable}
	}
	return View{Healthy: true, Token: token, Message: token}
}
