package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/monalabs/mona/internal/catalog"
	"github.com/monalabs/mona/internal/imagecache"
	"github.com/monalabs/mona/internal/retrieval"
)

// missResult is what the model sees when retrieval finds nothing. It reads
// as a tool outcome, not an error, so the model can answer conversationally.
const missResult = "no matching product found"

// productPayload is the product form handed back to the model.
type productPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Brand       string `json:"brand"`
	Category    string `json:"category"`
	Price       int    `json:"price"`
	ImageURL    string `json:"image_url"`
}

func formatProduct(p catalog.Product) (string, error) {
	body, err := json.Marshal(productPayload{
		Name:        p.Name,
		Description: p.Description,
		Brand:       p.Brand,
		Category:    p.Category,
		Price:       p.Price,
		ImageURL:    p.ImageURL,
	})
	if err != nil {
		return "", fmt.Errorf("marshal product: %w", err)
	}
	return string(body), nil
}

// NewTextSearchTool exposes text retrieval as search_product_by_text.
func NewTextSearchTool(engine *retrieval.Engine) Tool {
	return Tool{
		Name:        "search_product_by_text",
		Description: "Search a product by text.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{"type": "string"},
			},
			"required":             []string{"text"},
			"additionalProperties": false,
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			query, _ := args["text"].(string)
			product, err := engine.SearchByText(ctx, query)
			if errors.Is(err, retrieval.ErrMiss) {
				return missResult, nil
			}
			if err != nil {
				return "", err
			}
			return formatProduct(product)
		},
	}
}

// NewImageSearchTool exposes image retrieval as search_product_by_image.
// The image_id argument references a previously uploaded image in the
// cache; an unknown id is a miss, not a failure.
func NewImageSearchTool(engine *retrieval.Engine, cache *imagecache.Cache) Tool {
	return Tool{
		Name:        "search_product_by_image",
		Description: "Search a product by image. Provide image ID shown in the user query.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"image_id": map[string]any{"type": "string"},
			},
			"required":             []string{"image_id"},
			"additionalProperties": false,
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			imageID, _ := args["image_id"].(string)
			raw, ok := cache.Get(imageID)
			if !ok {
				return missResult, nil
			}
			product, err := engine.SearchByImage(ctx, raw)
			if errors.Is(err, retrieval.ErrMiss) {
				return missResult, nil
			}
			if err != nil {
				return "", err
			}
			return formatProduct(product)
		},
	}
}
