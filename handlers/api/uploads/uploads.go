package uploads

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"designer-pro/core"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/h2non/filetype"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

const (
	// MaxUploadBytes caps a single background upload.
	MaxUploadBytes = 10 << 20
	// PathPrefix is where uploaded backgrounds are served from.
	PathPrefix = "/uploads/backgrounds/"
)

// Response is returned after a successful upload.
type Response struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// HandleUploadBackground accepts a multipart "file" field holding an image.
func HandleUploadBackground(store core.AssetStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes+1<<20)
		file, header, err := r.FormFile("file")
		if err != nil {
			logrus.WithField("error", err).Warn("Upload without file field")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "A file field is required"})
			return
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, MaxUploadBytes+1))
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Failed to read upload"})
			return
		}
		if len(data) > MaxUploadBytes {
			render.Status(r, http.StatusRequestEntityTooLarge)
			render.JSON(w, r, map[string]string{"error": "File is too large"})
			return
		}

		kind, _ := filetype.Match(data)
		if !filetype.IsImage(data) || kind == filetype.Unknown {
			logrus.WithFields(logrus.Fields{
				"filename": header.Filename,
				"size":     len(data),
			}).Warn("Rejected non-image upload")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Uploaded file is not an image"})
			return
		}

		name := ulid.Make().String() + "." + kind.Extension
		if err := store.Put(r.Context(), name, kind.MIME.Value, data); err != nil {
			logrus.WithFields(logrus.Fields{
				"error":    err,
				"filename": name,
			}).Error("Failed to store upload")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to store upload"})
			return
		}

		logrus.WithFields(logrus.Fields{
			"filename": name,
			"original": header.Filename,
			"size":     len(data),
		}).Info("Background uploaded")
		render.JSON(w, r, Response{Filename: name, URL: PathPrefix + name})
	}
}

// HandleServe streams an uploaded asset named by the {name} URL parameter.
func HandleServe(store core.AssetStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		data, contentType, err := store.Open(r.Context(), name)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) || errors.Is(err, core.ErrInvalidKey) {
				http.NotFound(w, r)
				return
			}
			logrus.WithFields(logrus.Fields{
				"error":    err,
				"filename": name,
			}).Error("Failed to open upload")
			http.Error(w, "failed to open upload", http.StatusInternalServerError)
			return
		}
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		w.Write(data)
	}
}
