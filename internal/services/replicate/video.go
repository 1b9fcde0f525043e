package replicate

import (
	"context"
	"strings"

	"sceneforge/internal/services"
)

// VideoInput describes a single image-to-video animation request. The first
// frame must already be an inline data URI or a fetchable image URL.
type VideoInput struct {
	Prompt          string
	FirstFrameImage string
	PromptOptimizer bool
}

// GenerateVideo animates the first frame into a short clip and returns the
// hosted video URL.
func (c *Client) GenerateVideo(ctx context.Context, input VideoInput) (string, error) {
	const op = "generate video"

	prompt := strings.TrimSpace(input.Prompt)
	if prompt == "" {
		return "", services.Wrap(services.ErrValidation, "replicate", op, "prompt required", nil)
	}
	if strings.TrimSpace(input.FirstFrameImage) == "" {
		return "", services.Wrap(services.ErrValidation, "replicate", op, "first frame image required", nil)
	}

	modelInput := map[string]any{
		"prompt":            prompt,
		"first_frame_image": input.FirstFrameImage,
		"prompt_optimizer":  input.PromptOptimizer,
	}

	output, err := c.run(ctx, c.cfg.VideoModel, modelInput, op)
	if err != nil {
		return "", err
	}
	assetURL, err := firstOutputURL(output)
	if err != nil {
		return "", services.Wrap(services.ErrCollaborator, "replicate", op, "extract video URL", err)
	}
	return assetURL, nil
}
