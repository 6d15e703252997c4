package settings

import (
	"net/http"
	"os"

	"github.com/go-chi/render"
)

// Public is the subset of shop settings anyone may read.
type Public struct {
	FacebookPageLink  string `json:"facebook_page_link"`
	InstagramPageLink string `json:"instagram_page_link"`
}

// FromEnv reads FACEBOOK_PAGE_LINK and INSTAGRAM_PAGE_LINK.
func FromEnv() Public {
	return Public{
		FacebookPageLink:  os.Getenv("FACEBOOK_PAGE_LINK"),
		InstagramPageLink: os.Getenv("INSTAGRAM_PAGE_LINK"),
	}
}

func HandlePublic(s Public) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, s)
	}
}
