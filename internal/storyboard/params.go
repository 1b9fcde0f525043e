package storyboard

import (
	"fmt"
	"strings"

	"sceneforge/internal/config"
)

// Style selects the visual treatment appended to every image prompt.
type Style string

// AspectRatio selects the frame shape for generated images.
type AspectRatio string

// Quality selects the output quality tier for generated images.
type Quality string

const (
	StyleCinematic Style = "cinematic"
	StyleArtistic  Style = "artistic"
	StyleRealistic Style = "realistic"

	RatioWide     AspectRatio = "16:9"
	RatioSquare   AspectRatio = "1:1"
	RatioPortrait AspectRatio = "9:16"

	QualityHigh     Quality = "high"
	QualityStandard Quality = "standard"
)

// Params carries the generation parameters applied to every image request.
type Params struct {
	Style       Style
	AspectRatio AspectRatio
	Quality     Quality
}

// ParseStyle validates a style string.
func ParseStyle(value string) (Style, error) {
	switch Style(strings.ToLower(strings.TrimSpace(value))) {
	case StyleCinematic:
		return StyleCinematic, nil
	case StyleArtistic:
		return StyleArtistic, nil
	case StyleRealistic:
		return StyleRealistic, nil
	default:
		return "", fmt.Errorf("unknown style %q (expected cinematic, artistic, or realistic)", value)
	}
}

// ParseAspectRatio validates an aspect ratio string.
func ParseAspectRatio(value string) (AspectRatio, error) {
	switch AspectRatio(strings.TrimSpace(value)) {
	case RatioWide:
		return RatioWide, nil
	case RatioSquare:
		return RatioSquare, nil
	case RatioPortrait:
		return RatioPortrait, nil
	default:
		return "", fmt.Errorf("unknown aspect ratio %q (expected 16:9, 1:1, or 9:16)", value)
	}
}

// ParseQuality validates a quality string.
func ParseQuality(value string) (Quality, error) {
	switch Quality(strings.ToLower(strings.TrimSpace(value))) {
	case QualityHigh:
		return QualityHigh, nil
	case QualityStandard:
		return QualityStandard, nil
	default:
		return "", fmt.Errorf("unknown quality %q (expected high or standard)", value)
	}
}

// ParseParams validates all three parameters together.
func ParseParams(style, ratio, quality string) (Params, error) {
	parsedStyle, err := ParseStyle(style)
	if err != nil {
		return Params{}, err
	}
	parsedRatio, err := ParseAspectRatio(ratio)
	if err != nil {
		return Params{}, err
	}
	parsedQuality, err := ParseQuality(quality)
	if err != nil {
		return Params{}, err
	}
	return Params{Style: parsedStyle, AspectRatio: parsedRatio, Quality: parsedQuality}, nil
}

// ParamsFromConfig reads the configured generation defaults. Configuration
// validation has already vetted the values.
func ParamsFromConfig(cfg *config.Config) Params {
	params, err := ParseParams(cfg.Generation.Style, cfg.Generation.AspectRatio, cfg.Generation.Quality)
	if err != nil {
		return Params{Style: StyleCinematic, AspectRatio: RatioWide, Quality: QualityHigh}
	}
	return params
}
