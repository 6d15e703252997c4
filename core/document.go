package core

type (
	// Background is the canvas fill. When ImageURL is set it is drawn over
	// Color, scaled to cover the whole canvas.
	Background struct {
		Color    string `json:"color"`
		ImageURL string `json:"imageUrl,omitempty"`
	}

	// CanvasSize is the pixel size of a document.
	CanvasSize struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}

	// Document is the in-memory state of one poster or banner.
	Document struct {
		Size       CanvasSize
		Background Background
		Elements   Elements
	}
)

const DefaultBackgroundColor = "#ffffff"

// NewDocument returns an empty document of the given size on a white background.
func NewDocument(width, height int) *Document {
	return &Document{
		Size:       CanvasSize{Width: width, Height: height},
		Background: Background{Color: DefaultBackgroundColor},
		Elements:   Elements{},
	}
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	c := &Document{
		Size:       d.Size,
		Background: d.Background,
		Elements:   make(Elements, 0, len(d.Elements)),
	}
	for _, el := range d.Elements {
		c.Elements = append(c.Elements, el.Clone())
	}
	return c
}

// IndexOf returns the paint-order index of id, or -1.
func (d *Document) IndexOf(id ElementID) int {
	for i, el := range d.Elements {
		if el.ID() == id {
			return i
		}
	}
	return -1
}
