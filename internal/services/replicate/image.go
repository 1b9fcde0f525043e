package replicate

import (
	"context"
	"strings"

	"sceneforge/internal/services"
)

// ImageInput describes a single image generation request.
type ImageInput struct {
	Prompt      string
	Style       string
	AspectRatio string
	Quality     string
}

// GenerateImage renders a still image for the prompt and returns the hosted
// asset URL.
func (c *Client) GenerateImage(ctx context.Context, input ImageInput) (string, error) {
	const op = "generate image"

	prompt := strings.TrimSpace(input.Prompt)
	if prompt == "" {
		return "", services.Wrap(services.ErrValidation, "replicate", op, "prompt required", nil)
	}

	modelInput := map[string]any{
		"prompt":         styledPrompt(prompt, input.Style),
		"num_outputs":    1,
		"aspect_ratio":   aspectRatioOrDefault(input.AspectRatio),
		"output_format":  "webp",
		"output_quality": qualityLevel(input.Quality),
		"go_fast":        true,
	}

	output, err := c.run(ctx, c.cfg.ImageModel, modelInput, op)
	if err != nil {
		return "", err
	}
	assetURL, err := firstOutputURL(output)
	if err != nil {
		return "", services.Wrap(services.ErrCollaborator, "replicate", op, "extract image URL", err)
	}
	return assetURL, nil
}

func styledPrompt(prompt, style string) string {
	style = strings.ToLower(strings.TrimSpace(style))
	if style == "" {
		return prompt
	}
	return prompt + ", " + style + " style"
}

func aspectRatioOrDefault(ratio string) string {
	ratio = strings.TrimSpace(ratio)
	if ratio == "" {
		return "16:9"
	}
	return ratio
}

func qualityLevel(quality string) int {
	if strings.EqualFold(strings.TrimSpace(quality), "standard") {
		return 80
	}
	return 100
}
