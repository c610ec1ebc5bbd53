package content

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// maxImageDim bounds the longest edge of an attached image before it is sent
// to the model. Larger uploads are scaled down to keep request payloads small.
const maxImageDim = 1024

// ImageToDataURI decodes an uploaded image, resizes it if either dimension
// exceeds maxImageDim, and re-encodes it as a base64 data URI suitable for
// inline delivery to the model API.
func ImageToDataURI(data []byte) (string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width > maxImageDim || height > maxImageDim {
		var newWidth, newHeight int
		if width > height {
			newWidth = maxImageDim
			newHeight = (height * maxImageDim) / width
		} else {
			newHeight = maxImageDim
			newWidth = (width * maxImageDim) / height
		}

		resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
		draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)
		img = resized
	}

	// GIF and WebP inputs are re-encoded; animation is not preserved.
	var buf bytes.Buffer
	mimeType := "image/jpeg"
	switch format {
	case "png":
		mimeType = "image/png"
		if err := png.Encode(&buf, img); err != nil {
			return "", fmt.Errorf("failed to encode image: %w", err)
		}
	default:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
			return "", fmt.Errorf("failed to encode image: %w", err)
		}
	}

	encoded := base64.StdEncoding.EncodeToString(buf.Bytes())
	return fmt.Sprintf("data:%s;base64,%s", mimeType, encoded), nil
}
