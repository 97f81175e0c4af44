package chat

import (
	_ "embed"
	"net/http"
)

//go:embed demo.html
var demoPage []byte

// handleDemoPage serves a standalone tester UI so the chat endpoints can be
// exercised without the kiosk frontend.
func (h *Handler) handleDemoPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(demoPage)
}
