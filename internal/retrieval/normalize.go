package retrieval

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// normalized image bounds before embedding
const maxImageEdge = 512

// NormalizeImage decodes an uploaded image in any common format, scales it
// down so its longest edge is at most maxImageEdge, and re-encodes it as
// JPEG. Seeded catalog images go through the same path, so query and
// corpus embeddings stay comparable.
func NormalizeImage(raw []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxImageEdge || bounds.Dy() > maxImageEdge {
		img = imaging.Fit(img, maxImageEdge, maxImageEdge, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
