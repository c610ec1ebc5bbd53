package content

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromText(t *testing.T) {
	c := FromText("hello")
	require.Len(t, c, 1)
	text, ok := c[0].(*Text)
	require.True(t, ok)
	assert.Equal(t, "hello", text.Text)
}

func TestTextf(t *testing.T) {
	c := Textf("x = %d", 7)
	assert.Equal(t, "x = 7", c.Text())
}

func TestFromAny(t *testing.T) {
	c, err := FromAny(map[string]int{"count": 2})
	require.NoError(t, err)
	require.Len(t, c, 1)
	jsonItem, ok := c[0].(*JSON)
	require.True(t, ok)
	assert.JSONEq(t, `{"count":2}`, string(jsonItem.Data))
}

func TestAppendMergesTrailingText(t *testing.T) {
	c := FromText("Hello")
	c.Append(", world")
	require.Len(t, c, 1)
	assert.Equal(t, "Hello, world", c.Text())
}

func TestAppendAfterImageAddsNewItem(t *testing.T) {
	c := FromText("look:")
	c.AddImage("data:image/png;base64,AAAA")
	c.Append("done")
	require.Len(t, c, 3)
	assert.Equal(t, "look:done", c.Text())
}

func TestTextSkipsNonTextItems(t *testing.T) {
	c := FromRawJSON(json.RawMessage(`{"a":1}`))
	assert.Equal(t, "", c.Text())
}

func TestMarshalRoundTrip(t *testing.T) {
	c := FromText("caption")
	c.AddImage("data:image/png;base64,AAAA")

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"text"`)
	assert.Contains(t, string(data), `"type":"imageURL"`)

	var decoded Content
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "caption", decoded.Text())
	imageItem, ok := decoded[1].(*ImageURL)
	require.True(t, ok)
	assert.Equal(t, "data:image/png;base64,AAAA", imageItem.URL)
}

func TestUnmarshalUnknownTypeFails(t *testing.T) {
	var c Content
	err := json.Unmarshal([]byte(`[{"type":"video","url":"x"}]`), &c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown content item type")
}

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))))
	return buf.Bytes()
}

func TestImageToDataURI(t *testing.T) {
	uri, err := ImageToDataURI(encodePNG(t, 10, 10))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

	payload := strings.TrimPrefix(uri, "data:image/png;base64,")
	decoded, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)
	img, _, err := image.Decode(bytes.NewReader(decoded))
	require.NoError(t, err)
	assert.Equal(t, 10, img.Bounds().Dx())
}

func TestImageToDataURIResizesLargeImages(t *testing.T) {
	uri, err := ImageToDataURI(encodePNG(t, 2048, 1024))
	require.NoError(t, err)

	payload := uri[strings.Index(uri, ",")+1:]
	decoded, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)
	img, _, err := image.Decode(bytes.NewReader(decoded))
	require.NoError(t, err)
	assert.Equal(t, 1024, img.Bounds().Dx())
	assert.Equal(t, 512, img.Bounds().Dy())
}

func TestImageToDataURIRejectsGarbage(t *testing.T) {
	_, err := ImageToDataURI([]byte("not an image"))
	require.Error(t, err)
}
