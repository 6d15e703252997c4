package imagesearch

import (
	"errors"
	"net/http"
	"os"
	"strconv"

	"designer-pro/stockphoto"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

var photos *stockphoto.Client

// Init reads UNSPLASH_ACCESS_KEY and UNSPLASH_BASE_URL.
func Init() {
	key := os.Getenv("UNSPLASH_ACCESS_KEY")
	if key == "" {
		logrus.Warn("UNSPLASH_ACCESS_KEY environment variable not set. Image search will not work.")
	}
	SetClient(stockphoto.New(os.Getenv("UNSPLASH_BASE_URL"), key, nil))
}

// SetClient replaces the upstream client.
func SetClient(c *stockphoto.Client) {
	photos = c
}

func HandleSearch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if photos == nil {
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Image search is not configured on the server"})
			return
		}

		query := r.URL.Query().Get("query")
		perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

		results, err := photos.Search(r.Context(), query, perPage)
		if err != nil {
			log := logrus.WithFields(logrus.Fields{
				"error": err,
				"query": query,
			})
			var se *stockphoto.StatusError
			switch {
			case errors.Is(err, stockphoto.ErrNoAccessKey):
				log.Error("Image search requested without access key")
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, map[string]string{"error": "Image search is not configured on the server"})
			case errors.As(err, &se):
				log.Warn("Image search rejected upstream")
				render.Status(r, http.StatusBadGateway)
				render.JSON(w, r, map[string]string{"error": "Image search failed upstream"})
			default:
				log.Error("Failed to communicate with image search API")
				render.Status(r, http.StatusBadGateway)
				render.JSON(w, r, map[string]string{"error": "Failed to communicate with image search API"})
			}
			return
		}

		render.JSON(w, r, results)
	}
}
