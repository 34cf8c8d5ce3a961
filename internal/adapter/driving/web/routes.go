package web

import "net/http"

// RegisterRoutes mounts the static handler at "/". It catches every request
// no more specific route accepted, which makes it the site-wide 404 as well.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	mux.Handle("/", h)
}
