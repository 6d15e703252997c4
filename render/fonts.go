package render

import (
	"fmt"
	"sync"

	"designer-pro/core"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomediumitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// fontSet holds the four faces of one family: regular, bold, italic, bold italic.
type fontSet [4][]byte

var (
	sansSet  = fontSet{goregular.TTF, gobold.TTF, goitalic.TTF, gobolditalic.TTF}
	serifSet = fontSet{gomedium.TTF, gobold.TTF, gomediumitalic.TTF, gobolditalic.TTF}
	monoSet  = fontSet{gomono.TTF, gomonobold.TTF, gomonoitalic.TTF, gomonobolditalic.TTF}
)

// There are no metric-compatible copies of the browser families here, so
// each one maps onto the closest Go font.
func setFor(f core.FontFamily) fontSet {
	switch f {
	case core.FontTimesNewRoman, core.FontGeorgia:
		return serifSet
	case core.FontCourierNew:
		return monoSet
	default:
		return sansSet
	}
}

func styleIndex(bold, italic bool) int {
	i := 0
	if bold {
		i |= 1
	}
	if italic {
		i |= 2
	}
	return i
}

var (
	parsedMu sync.Mutex
	parsed   = map[*byte]*opentype.Font{}
)

// parse caches parsed fonts by TTF slice identity. Parsed fonts are shared;
// faces are not, see Fonts.
func parse(ttf []byte) (*opentype.Font, error) {
	parsedMu.Lock()
	defer parsedMu.Unlock()
	key := &ttf[0]
	if f, ok := parsed[key]; ok {
		return f, nil
	}
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, err
	}
	parsed[key] = f
	return f, nil
}

type faceKey struct {
	family core.FontFamily
	style  int
	size   float64
}

// Fonts is a face cache. Faces are not safe for concurrent use, so every
// surface gets its own Fonts.
type Fonts struct {
	faces map[faceKey]font.Face
}

func NewFonts() *Fonts {
	return &Fonts{faces: map[faceKey]font.Face{}}
}

// Face returns the face for a family/weight/style at size pixels.
func (fs *Fonts) Face(family core.FontFamily, bold, italic bool, size float64) (font.Face, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid font size %v", size)
	}
	k := faceKey{family: family, style: styleIndex(bold, italic), size: size}
	if f, ok := fs.faces[k]; ok {
		return f, nil
	}
	otf, err := parse(setFor(family)[k.style])
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", family, err)
	}
	face, err := opentype.NewFace(otf, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("new face %s %vpx: %w", family, size, err)
	}
	fs.faces[k] = face
	return face, nil
}

// Close releases every cached face.
func (fs *Fonts) Close() {
	for k, f := range fs.faces {
		f.Close()
		delete(fs.faces, k)
	}
}
