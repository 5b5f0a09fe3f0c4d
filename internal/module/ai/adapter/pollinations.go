package adapter

import (
	"fmt"
	"math/rand"
	"net/url"
	"strings"
)

// MaxImageSeed is the upper bound of the random seed added to image URLs.
const MaxImageSeed = 100000

// PollinationsConfig configures image URL generation.
type PollinationsConfig struct {
	BaseURL string
	Width   int
	Height  int
}

// PollinationsAdapter builds Pollinations image URLs. The image is rendered
// by the browser when it loads the URL, so no request is made here.
type PollinationsAdapter struct {
	baseURL string
	width   int
	height  int
	seed    func() int
}

// NewPollinationsAdapter creates a Pollinations adapter.
func NewPollinationsAdapter(cfg PollinationsConfig) *PollinationsAdapter {
	base := cfg.BaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return &PollinationsAdapter{
		baseURL: base,
		width:   cfg.Width,
		height:  cfg.Height,
		seed:    func() int { return rand.Intn(MaxImageSeed) + 1 },
	}
}

// ImageURL returns the generation URL for prompt with a fresh seed.
func (a *PollinationsAdapter) ImageURL(prompt string) string {
	return fmt.Sprintf("%s%s&seed=%d&noLogo=true&width=%d&height=%d",
		a.baseURL, escapePrompt(prompt), a.seed(), a.width, a.height)
}

// escapePrompt escapes prompt as a single path segment, keeping the
// characters browsers leave alone in URI components.
func escapePrompt(prompt string) string {
	escaped := url.PathEscape(prompt)
	// PathEscape keeps sub-delims that must not split the prompt.
	replacer := strings.NewReplacer("&", "%26", "=", "%3D", "+", "%2B", ",", "%2C", ";", "%3B", ":", "%3A", "@", "%40", "$", "%24")
	return replacer.Replace(escaped)
}
