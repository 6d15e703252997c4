package core

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Elements is the ordered element list of a document. Order is paint order.
type Elements []Element

type (
	wireHeader struct {
		ID   json.RawMessage `json:"id"`
		Type Kind            `json:"type"`
	}

	wireText struct {
		ID   json.RawMessage `json:"id"`
		Type Kind            `json:"type"`
		Frame
		TextStyle
		Content string `json:"content"`
	}

	wireImage struct {
		ID   json.RawMessage `json:"id"`
		Type Kind            `json:"type"`
		Frame
		Src string `json:"src"`
	}
)

func (es Elements) MarshalJSON() ([]byte, error) {
	out := make([]any, 0, len(es))
	for _, el := range es {
		if el == nil {
			return nil, fmt.Errorf("nil element")
		}
		id, err := json.Marshal(string(el.ID()))
		if err != nil {
			return nil, err
		}
		switch e := el.(type) {
		case *TextElement:
			out = append(out, wireText{ID: id, Type: KindText, Frame: e.Frame, TextStyle: e.TextStyle, Content: e.Content})
		case *ImageElement:
			out = append(out, wireImage{ID: id, Type: KindImage, Frame: e.Frame, Src: e.Src})
		default:
			return nil, fmt.Errorf("unsupported element %T", el)
		}
	}
	return json.Marshal(out)
}

func (es *Elements) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	decoded := make(Elements, 0, len(raw))
	for i, msg := range raw {
		el, err := decodeElement(msg)
		if err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		decoded = append(decoded, el)
	}
	*es = decoded
	return nil
}

func decodeElement(msg json.RawMessage) (Element, error) {
	var hdr wireHeader
	if err := json.Unmarshal(msg, &hdr); err != nil {
		return nil, err
	}
	id, err := decodeID(hdr.ID)
	if err != nil {
		return nil, err
	}

	// Elements written by older clients may omit opacity entirely.
	frame := Frame{Opacity: 1}

	switch hdr.Type {
	case KindText:
		w := wireText{Frame: frame, TextStyle: DefaultTextStyle()}
		if err := json.Unmarshal(msg, &w); err != nil {
			return nil, err
		}
		return &TextElement{ElementID: id, Frame: w.Frame, TextStyle: w.TextStyle, Content: w.Content}, nil
	case KindImage:
		w := wireImage{Frame: frame}
		if err := json.Unmarshal(msg, &w); err != nil {
			return nil, err
		}
		return &ImageElement{ElementID: id, Frame: w.Frame, Src: w.Src}, nil
	default:
		return nil, fmt.Errorf("unknown element type %q", hdr.Type)
	}
}

// decodeID accepts both string ids and the numeric timestamps older
// designs were saved with.
func decodeID(raw json.RawMessage) (ElementID, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return NewElementID(), nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		if s == "" {
			return NewElementID(), nil
		}
		return ElementID(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("invalid element id %s", raw)
	}
	return ElementID(n.String()), nil
}
