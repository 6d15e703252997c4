package designs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"designer-pro/canvas"
	"designer-pro/core"
	"designer-pro/middleware"
	"designer-pro/render"

	"github.com/go-chi/chi/v5"
	chirender "github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

// ListLimit caps how many designs a list returns.
const ListLimit = 100

// Publisher is told about successful mutations. A nil Publisher is allowed.
type Publisher interface {
	DesignSaved(userID string, d *core.Design)
	DesignDeleted(userID, id string)
}

func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		chirender.Status(r, http.StatusUnauthorized)
		chirender.JSON(w, r, map[string]string{"error": "User claims not found"})
		return "", false
	}
	return claims.Subject, true
}

func HandleList(store core.DesignStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := userID(w, r)
		if !ok {
			return
		}

		designs, err := store.List(r.Context(), uid, ListLimit)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"error":   err,
				"user_id": uid,
			}).Error("Failed to list designs")
			chirender.Status(r, http.StatusInternalServerError)
			chirender.JSON(w, r, map[string]string{"error": "Failed to list designs"})
			return
		}

		// Return an empty array instead of null.
		if designs == nil {
			designs = []*core.Design{}
		}

		chirender.JSON(w, r, designs)
	}
}

func HandleGet(store core.DesignStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, ok := lookup(w, r, store)
		if !ok {
			return
		}
		chirender.JSON(w, r, d)
	}
}

// lookup loads the design named by the {id} URL parameter, writing the
// error response itself when it fails.
func lookup(w http.ResponseWriter, r *http.Request, store core.DesignStore) (*core.Design, bool) {
	uid, ok := userID(w, r)
	if !ok {
		return nil, false
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		chirender.Status(r, http.StatusBadRequest)
		chirender.JSON(w, r, map[string]string{"error": "Design id is required"})
		return nil, false
	}

	d, err := store.Get(r.Context(), uid, id)
	if err != nil {
		log := logrus.WithFields(logrus.Fields{
			"error":     err,
			"user_id":   uid,
			"design_id": id,
		})
		if errors.Is(err, core.ErrNotFound) || errors.Is(err, core.ErrInvalidKey) {
			log.Warn("Design not found")
			chirender.Status(r, http.StatusNotFound)
			chirender.JSON(w, r, map[string]string{"error": "Design not found"})
			return nil, false
		}
		log.Error("Failed to get design")
		chirender.Status(r, http.StatusInternalServerError)
		chirender.JSON(w, r, map[string]string{"error": "Failed to get design"})
		return nil, false
	}
	return d, true
}

func validate(in *core.DesignInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return errors.New("name is required")
	}
	if in.CanvasSize.Width == 0 && in.CanvasSize.Height == 0 {
		in.CanvasSize = core.CanvasSize{Width: 800, Height: 600}
	}
	w, h := in.CanvasSize.Width, in.CanvasSize.Height
	if w <= 0 || h <= 0 || w > render.MaxDimension || h > render.MaxDimension {
		return fmt.Errorf("canvas_size %dx%d is out of range", w, h)
	}
	if in.Background == "" {
		in.Background = core.DefaultBackgroundColor
	}
	for _, el := range in.Elements {
		canvas.ClampElement(el)
	}
	return nil
}

func HandleCreate(store core.DesignStore, pub Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := userID(w, r)
		if !ok {
			return
		}
		defer r.Body.Close()

		var in core.DesignInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			logrus.WithFields(logrus.Fields{
				"error":   err,
				"user_id": uid,
			}).Warn("Invalid design payload")
			chirender.Status(r, http.StatusBadRequest)
			chirender.JSON(w, r, map[string]string{"error": "Invalid design payload"})
			return
		}
		if err := validate(&in); err != nil {
			chirender.Status(r, http.StatusBadRequest)
			chirender.JSON(w, r, map[string]string{"error": err.Error()})
			return
		}

		d := core.NewDesign(uid, in)
		if err := store.Create(r.Context(), d); err != nil {
			logrus.WithFields(logrus.Fields{
				"error":   err,
				"user_id": uid,
			}).Error("Failed to save design")
			chirender.Status(r, http.StatusInternalServerError)
			chirender.JSON(w, r, map[string]string{"error": "Failed to save design"})
			return
		}

		if pub != nil {
			pub.DesignSaved(uid, d)
		}
		chirender.Status(r, http.StatusOK)
		chirender.JSON(w, r, d)
	}
}

func HandleDelete(store core.DesignStore, pub Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := userID(w, r)
		if !ok {
			return
		}

		id := chi.URLParam(r, "id")
		if id == "" {
			chirender.Status(r, http.StatusBadRequest)
			chirender.JSON(w, r, map[string]string{"error": "Design id is required"})
			return
		}

		if err := store.Delete(r.Context(), uid, id); err != nil {
			log := logrus.WithFields(logrus.Fields{
				"error":     err,
				"user_id":   uid,
				"design_id": id,
			})
			if errors.Is(err, core.ErrNotFound) || errors.Is(err, core.ErrInvalidKey) {
				log.Warn("Design not found for deletion")
				chirender.Status(r, http.StatusNotFound)
				chirender.JSON(w, r, map[string]string{"error": "Design not found"})
				return
			}
			log.Error("Failed to delete design")
			chirender.Status(r, http.StatusInternalServerError)
			chirender.JSON(w, r, map[string]string{"error": "Failed to delete design"})
			return
		}

		if pub != nil {
			pub.DesignDeleted(uid, id)
		}
		chirender.JSON(w, r, map[string]string{"message": "Design deleted successfully"})
	}
}

// HandleExport renders a saved design to PNG.
func HandleExport(store core.DesignStore, exporter *render.Exporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, ok := lookup(w, r, store)
		if !ok {
			return
		}

		var buf bytes.Buffer
		res, err := exporter.Export(r.Context(), d.Document(), &buf)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"error":     err,
				"design_id": d.ID,
			}).Error("Failed to export design")
			chirender.Status(r, http.StatusInternalServerError)
			chirender.JSON(w, r, map[string]string{"error": "Failed to export design"})
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", render.FileName(d.Name)))
		w.Header().Set("X-Skipped-Images", strconv.Itoa(len(res.Skipped)))
		w.Write(buf.Bytes())
	}
}

// HandleTemplates lists the canvas presets the editor offers.
func HandleTemplates() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chirender.JSON(w, r, canvas.Templates())
	}
}
