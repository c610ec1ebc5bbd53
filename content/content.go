package content

import (
	"encoding/json"
	"fmt"
)

type Type string

const (
	TypeText     Type = "text"
	TypeImageURL Type = "imageURL"
	TypeJSON     Type = "json"
)

type Item interface {
	Type() Type
}

type Text struct {
	Text string `json:"text"`
}

func (t *Text) Type() Type {
	return TypeText
}

type ImageURL struct {
	URL string `json:"image_url"`
}

func (iu *ImageURL) Type() Type {
	return TypeImageURL
}

type JSON struct {
	Data json.RawMessage `json:"data"`
}

func (j *JSON) Type() Type {
	return TypeJSON
}

// Content is the ordered list of items that make up one message. A plain chat
// message is a single Text item; a tool result is a JSON item; a user message
// with an attachment is a Text item followed by an ImageURL item.
type Content []Item

// FromAny marshals the given value to JSON and returns a new JSON content item
// with the marshalled JSON data.
func FromAny(value any) (Content, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return FromRawJSON(data), nil
}

// FromRawJSON returns a new JSON content item with the given raw JSON data.
func FromRawJSON(data json.RawMessage) Content {
	return Content{
		&JSON{Data: data},
	}
}

// FromText returns a new content item with the given text.
func FromText(text string) Content {
	return Content{
		&Text{Text: text},
	}
}

// Textf returns a new content item with the provided formatted text.
func Textf(format string, args ...any) Content {
	return FromText(fmt.Sprintf(format, args...))
}

// AddImage adds an image URL (usually a data URI) to the content.
func (c *Content) AddImage(imageURL string) {
	*c = append(*c, &ImageURL{URL: imageURL})
}

// Append adds the text to the last content item if it's a text item, otherwise
// it adds a new text item to the end of the list.
func (c *Content) Append(text string) {
	if l := len(*c); l > 0 {
		if tc, ok := (*c)[l-1].(*Text); ok {
			tc.Text += text
			return
		}
	}
	*c = append(*c, &Text{Text: text})
}

// Text returns the concatenation of all text items. This is what the
// transcript displays for a message.
func (c Content) Text() string {
	var s string
	for _, item := range c {
		if t, ok := item.(*Text); ok {
			s += t.Text
		}
	}
	return s
}

// MarshalJSON implements the json.Marshaler interface for Content.
func (c Content) MarshalJSON() ([]byte, error) {
	items := make([]map[string]any, len(c))
	for i, item := range c {
		itemData, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal item: %w", err)
		}

		var itemMap map[string]any
		if err := json.Unmarshal(itemData, &itemMap); err != nil {
			return nil, fmt.Errorf("failed to process item: %w", err)
		}

		itemMap["type"] = item.Type()
		items[i] = itemMap
	}

	return json.Marshal(items)
}

// UnmarshalJSON implements the json.Unmarshaler interface for Content.
func (c *Content) UnmarshalJSON(data []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}

	result := make(Content, 0, len(items))
	for _, itemData := range items {
		var typeContainer struct {
			Type Type `json:"type"`
		}
		if err := json.Unmarshal(itemData, &typeContainer); err != nil {
			return fmt.Errorf("failed to extract item type: %w", err)
		}

		var item Item
		switch typeContainer.Type {
		case TypeText:
			item = &Text{}
		case TypeImageURL:
			item = &ImageURL{}
		case TypeJSON:
			item = &JSON{}
		default:
			return fmt.Errorf("unknown content item type: %q", typeContainer.Type)
		}

		if err := json.Unmarshal(itemData, item); err != nil {
			return fmt.Errorf("failed to unmarshal %q item: %w", typeContainer.Type, err)
		}

		result = append(result, item)
	}

	*c = result
	return nil
}
