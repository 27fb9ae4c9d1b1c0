package agent

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrMalformedOutput reports a final model answer that does not satisfy the
// tagged output contract, or a product payload whose referenced image
// cannot be loaded.
var ErrMalformedOutput = errors.New("agent: malformed model output")

// taggedOutput is the required final answer envelope.
type taggedOutput struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Shaper turns a raw final model answer into the wire response. Text
// answers pass through; product answers get their image file loaded and
// inlined as base64 under image_encoded.
type Shaper struct {
	dataDir string
}

func NewShaper(dataDir string) *Shaper {
	if dataDir == "" {
		dataDir = "."
	}
	return &Shaper{dataDir: dataDir}
}

func (s *Shaper) Shape(raw string) (string, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()

	var out taggedOutput
	if err := dec.Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode answer: %v", ErrMalformedOutput, err)
	}

	switch out.Type {
	case "text":
		shaped, err := json.Marshal(map[string]string{"type": "text", "content": out.Content})
		if err != nil {
			return "", fmt.Errorf("marshal text answer: %w", err)
		}
		return string(shaped), nil
	case "json":
		return s.shapeProduct(out.Content)
	default:
		return "", fmt.Errorf("%w: unknown answer type %q", ErrMalformedOutput, out.Type)
	}
}

func (s *Shaper) shapeProduct(content string) (string, error) {
	var product map[string]any
	if err := json.Unmarshal([]byte(content), &product); err != nil {
		return "", fmt.Errorf("%w: product content is not JSON: %v", ErrMalformedOutput, err)
	}

	imageURL, _ := product["image_url"].(string)
	encoded, err := s.encodeImage(imageURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	product["image_encoded"] = encoded

	shaped, err := json.Marshal(map[string]any{"type": "json", "content": product})
	if err != nil {
		return "", fmt.Errorf("marshal product answer: %w", err)
	}
	return string(shaped), nil
}

// encodeImage reads a catalog image and base64-encodes it. The path must
// stay inside the data directory; the model echoes image_url verbatim from
// tool results, so anything else is treated as malformed output.
func (s *Shaper) encodeImage(imageURL string) (string, error) {
	if strings.TrimSpace(imageURL) == "" {
		return "", errors.New("product has no image_url")
	}
	if filepath.IsAbs(imageURL) {
		return "", fmt.Errorf("image_url %q is absolute", imageURL)
	}
	clean := filepath.Clean(filepath.FromSlash(imageURL))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("image_url %q escapes the data directory", imageURL)
	}

	raw, err := os.ReadFile(filepath.Join(s.dataDir, clean))
	if err != nil {
		return "", fmt.Errorf("read image %q: %v", imageURL, err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
