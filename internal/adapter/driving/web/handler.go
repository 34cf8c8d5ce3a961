// Package web serves the device's static site from the data directory.
package web

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/ericfisherdev/atomicserver/internal/adapter/driving/web/templates"
	"github.com/ericfisherdev/atomicserver/internal/adapter/driving/web/templates/pages"
	"github.com/ericfisherdev/atomicserver/internal/application"
)

// DefaultDocument is served for the root and for directory requests.
const DefaultDocument = "index.html"

// siteTitle heads every page rendered by the server.
const siteTitle = "Atomic Server"

// StatusReporter supplies the live address shown on the fallback home page.
type StatusReporter interface {
	Current() application.Status
}

// Handler serves files from the data filesystem. Markdown files are rendered
// to HTML. Without an uploaded index.html the root shows a status page.
type Handler struct {
	data   fs.FS
	status StatusReporter
	hidden map[string]struct{}
	logger *slog.Logger
}

// NewHandler creates a Handler over data. hidden lists root-relative names
// that must never be served, such as the credentials file. data may be nil.
func NewHandler(data fs.FS, status StatusReporter, hidden []string, logger *slog.Logger) *Handler {
	h := &Handler{
		data:   data,
		status: status,
		hidden: make(map[string]struct{}, len(hidden)),
		logger: logger,
	}

	for _, name := range hidden {
		h.hidden[strings.TrimPrefix(path.Clean("/"+name), "/")] = struct{}{}
	}

	return h
}

// ServeHTTP serves GET and HEAD. Everything else is answered with NotFound.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		NotFound(w, r)
		return
	}

	name, ok := cleanName(r.URL.Path)
	if !ok || h.isHidden(name) {
		NotFound(w, r)
		return
	}

	name, info, err := h.resolve(name)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			h.logger.Warn("static lookup failed", "path", r.URL.Path, "error", err)
		}
		if isHomePage(name) {
			h.serveStatusPage(w, r)
			return
		}
		NotFound(w, r)
		return
	}

	if strings.EqualFold(path.Ext(name), ".md") {
		h.serveMarkdown(w, r, name, info)
		return
	}

	h.serveFile(w, r, name, info)
}

// NotFound writes the plain-text 404 used for every unknown path.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusNotFound)
	_, _ = io.WriteString(w, "Not found")
}

// resolve stats name in the data filesystem, substituting the default
// document for directories. The returned name is the one it looked for last,
// also on error.
func (h *Handler) resolve(name string) (string, fs.FileInfo, error) {
	if h.data == nil {
		return name, nil, fs.ErrNotExist
	}

	info, err := fs.Stat(h.data, name)
	if err != nil {
		return name, nil, err
	}
	if !info.IsDir() {
		return name, info, nil
	}

	index := path.Join(name, DefaultDocument)
	info, err = fs.Stat(h.data, index)
	if err != nil {
		return index, nil, err
	}
	if info.IsDir() {
		return index, nil, fs.ErrNotExist
	}
	return index, info, nil
}

// isHomePage reports whether a missing name is the site root's document.
func isHomePage(name string) bool {
	return name == "." || name == DefaultDocument
}

func (h *Handler) serveStatusPage(w http.ResponseWriter, r *http.Request) {
	if h.status == nil {
		NotFound(w, r)
		return
	}

	st := h.status.Current()
	layout := templates.Layout(siteTitle, pages.Status(st.IP, st.Host))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := layout.Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render status page", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) serveFile(w http.ResponseWriter, r *http.Request, name string, info fs.FileInfo) {
	f, err := h.data.Open(name)
	if err != nil {
		h.logger.Warn("open static file", "name", name, "error", err)
		NotFound(w, r)
		return
	}
	defer f.Close()

	content, ok := f.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(f)
		if err != nil {
			h.logger.Error("read static file", "name", name, "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		content = bytes.NewReader(data)
	}

	http.ServeContent(w, r, info.Name(), info.ModTime(), content)
}

func (h *Handler) serveMarkdown(w http.ResponseWriter, r *http.Request, name string, info fs.FileInfo) {
	src, err := fs.ReadFile(h.data, name)
	if err != nil {
		h.logger.Error("read markdown file", "name", name, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	title := strings.TrimSuffix(info.Name(), path.Ext(info.Name()))
	layout := templates.Layout(title, pages.Markdown(RenderMarkdown(src)))

	var page bytes.Buffer
	if err := layout.Render(r.Context(), &page); err != nil {
		h.logger.Error("failed to render markdown page", "name", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeContent(w, r, info.Name(), info.ModTime(), bytes.NewReader(page.Bytes()))
}

func (h *Handler) isHidden(name string) bool {
	if _, ok := h.hidden[name]; ok {
		return true
	}

	for _, segment := range strings.Split(name, "/") {
		if len(segment) > 1 && strings.HasPrefix(segment, ".") {
			return true
		}
	}
	return false
}

// cleanName maps a URL path to an fs.FS name ("." for the root).
func cleanName(urlPath string) (string, bool) {
	name := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if name == "" {
		name = "."
	}
	return name, fs.ValidPath(name)
}
