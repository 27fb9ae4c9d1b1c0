package embedding

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPImageEmbedder posts base64 JPEG bytes to an embedding service and
// reads back the vector.
type HTTPImageEmbedder struct {
	url    string
	client *http.Client
}

func NewHTTPImageEmbedder(url string) *HTTPImageEmbedder {
	return &HTTPImageEmbedder{
		url: strings.TrimSpace(url),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type imageEmbedRequest struct {
	ImageB64 string `json:"image_b64"`
}

type imageEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (e *HTTPImageEmbedder) EmbedImage(ctx context.Context, jpeg []byte) ([]float32, error) {
	payload, err := json.Marshal(imageEmbedRequest{
		ImageB64: base64.StdEncoding.EncodeToString(jpeg),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return nil, fmt.Errorf("image embed status %d: %s", res.StatusCode, string(body))
	}

	var out imageEmbedResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("image embed returned empty vector")
	}
	return out.Embedding, nil
}
