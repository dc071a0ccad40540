package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/mediavault/backend/internal/logging"
	"github.com/mediavault/backend/internal/respond"
)

// StaticHandler serves uploaded files from the local storage root. Only used
// with the local storage backend; the object store serves its own URLs.
type StaticHandler struct {
	Root string
}

var staticContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".mkv":  "video/x-matroska",
	".pdf":  "application/pdf",
}

// ServeMedia handles GET /public/uploads/media/{filename}.
func (h StaticHandler) ServeMedia(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "uploads/media")
}

// ServeImage handles GET /public/uploads/images/{filename}.
func (h StaticHandler) ServeImage(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "uploads/images")
}

func (h StaticHandler) serve(w http.ResponseWriter, r *http.Request, prefix string) {
	ctx := r.Context()

	name := filepath.Base(r.PathValue("filename"))
	if name == "." || name == ".." || name == "/" {
		respond.Fail(ctx, w, r.URL.Path, http.StatusBadRequest, "Invalid file name")
		return
	}

	full := filepath.Join(h.Root, filepath.FromSlash(prefix), name)
	file, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			respond.Fail(ctx, w, r.URL.Path, http.StatusNotFound, "File not found")
			return
		}
		logging.FromContext(ctx).Error("failed to open static file", "path", full, "error", err)
		respond.Fail(ctx, w, r.URL.Path, http.StatusInternalServerError, "Internal server error")
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil || info.IsDir() {
		respond.Fail(ctx, w, r.URL.Path, http.StatusNotFound, "File not found")
		return
	}

	if ct, ok := staticContentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("Content-Disposition", "inline")
	http.ServeContent(w, r, name, info.ModTime(), file)
}
