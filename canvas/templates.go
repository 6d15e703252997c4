package canvas

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"designer-pro/core"

	"gopkg.in/yaml.v3"
)

// ErrUnknownTemplate is returned when applying a template name that is not registered.
var ErrUnknownTemplate = errors.New("unknown template")

type (
	// Template is a named canvas preset.
	Template struct {
		Name       string `json:"name" yaml:"name"`
		Width      int    `json:"width" yaml:"width"`
		Height     int    `json:"height" yaml:"height"`
		Background string `json:"bg" yaml:"background"`
	}

	// SizePreset is an entry of the canvas size picker.
	SizePreset struct {
		Label  string
		Width  int
		Height int
	}

	templateFile struct {
		Templates []Template `yaml:"templates"`
	}
)

var builtinTemplates = []Template{
	{Name: "Instagram Post", Width: 1080, Height: 1080, Background: "#ffffff"},
	{Name: "Facebook Post", Width: 1200, Height: 630, Background: "#ffffff"},
	{Name: "Story", Width: 1080, Height: 1920, Background: "#ffffff"},
	{Name: "Flyer A4", Width: 794, Height: 1123, Background: "#ffffff"},
	{Name: "Business Card", Width: 1050, Height: 600, Background: "#ffffff"},
	{Name: "Banner", Width: 1200, Height: 400, Background: "#ffffff"},
	{Name: "Square Post", Width: 800, Height: 800, Background: "#ffffff"},
	{Name: "Wide Banner", Width: 1500, Height: 500, Background: "#ffffff"},
}

// SizePresets are the sizes offered next to custom entry.
var SizePresets = []SizePreset{
	{"800 x 600 (4:3)", 800, 600},
	{"1024 x 768 (4:3)", 1024, 768},
	{"1080 x 1080 (Square)", 1080, 1080},
	{"1200 x 628 (Facebook)", 1200, 628},
	{"1080 x 1920 (Story)", 1080, 1920},
}

var (
	templatesMu sync.RWMutex
	templates   = append([]Template(nil), builtinTemplates...)
)

// Templates returns the registered presets in display order.
func Templates() []Template {
	templatesMu.RLock()
	defer templatesMu.RUnlock()
	return append([]Template(nil), templates...)
}

func LookupTemplate(name string) (Template, bool) {
	templatesMu.RLock()
	defer templatesMu.RUnlock()
	for _, t := range templates {
		if t.Name == name {
			return t, true
		}
	}
	return Template{}, false
}

// ApplyTemplate resets the store to the named preset. Existing elements are
// discarded.
func ApplyTemplate(s *Store, name string) error {
	t, ok := LookupTemplate(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}
	s.ResetDocument(t.Width, t.Height, core.Background{Color: t.Background})
	return nil
}

// LoadTemplates reads extra presets from a YAML file of the form
//
//	templates:
//	  - name: Poster
//	    width: 1000
//	    height: 1400
//	    background: "#fafafa"
//
// Entries replace built-ins with the same name; new names are appended.
func LoadTemplates(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read templates: %w", err)
	}
	var f templateFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	for i := range f.Templates {
		t := &f.Templates[i]
		if t.Name == "" || t.Width <= 0 || t.Height <= 0 {
			return fmt.Errorf("template %d: name and positive size are required", i)
		}
		if t.Background == "" {
			t.Background = core.DefaultBackgroundColor
		} else if hex, ok := NormalizeHex(t.Background); ok {
			t.Background = hex
		} else {
			return fmt.Errorf("template %q: invalid background %q", t.Name, t.Background)
		}
	}

	templatesMu.Lock()
	defer templatesMu.Unlock()
	for _, t := range f.Templates {
		replaced := false
		for i := range templates {
			if templates[i].Name == t.Name {
				templates[i] = t
				replaced = true
				break
			}
		}
		if !replaced {
			templates = append(templates, t)
		}
	}
	return nil
}

// ResetTemplates drops presets loaded from files.
func ResetTemplates() {
	templatesMu.Lock()
	defer templatesMu.Unlock()
	templates = append([]Template(nil), builtinTemplates...)
}
