package http

import (
	"net/http"
	"net/url"
	"strings"
)

// handleAssistant posts a message to the chat widget and returns to the
// page it was sent from with the widget open.
func (r *Router) handleAssistant(w http.ResponseWriter, req *http.Request) {
	if msg := strings.TrimSpace(req.PostFormValue("message")); msg != "" {
		r.chat.Ask(msg)
	}
	r.seeOther(w, req, chatReturnURL(req.PostFormValue("return")))
}

// chatReturnURL keeps the redirect on this site.
func chatReturnURL(path string) string {
	if !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") || strings.HasPrefix(path, "/\\") {
		path = "/"
	}
	return path + "?" + url.Values{"chat": {"open"}}.Encode()
}
