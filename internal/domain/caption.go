package domain

import "fmt"

// Mood is a coarse emotional label derived from an image's dominant color.
type Mood string

const (
	MoodWarm    Mood = "warm and energetic"
	MoodCool    Mood = "cool and calm"
	MoodFresh   Mood = "fresh and natural"
	MoodSunny   Mood = "sunny and joyful"
	MoodDark    Mood = "dark and moody"
	MoodNeutral Mood = "neutral and soft"
)

// Style is a coarse composition label derived from aspect ratio and edge density.
type Style string

const (
	StyleAbstract  Style = "abstract or expressive"
	StylePanoramic Style = "panoramic landscape"
	StylePortrait  Style = "portrait-focused composition"
	StyleBalanced  Style = "balanced and structured"
)

// RGB is an 8-bit color triple.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// String renders the triple as "(r, g, b)".
func (c RGB) String() string {
	return fmt.Sprintf("(%d, %d, %d)", c.R, c.G, c.B)
}

// Less orders colors lexicographically by (R, G, B).
func (c RGB) Less(o RGB) bool {
	if c.R != o.R {
		return c.R < o.R
	}
	if c.G != o.G {
		return c.G < o.G
	}
	return c.B < o.B
}

// Interpretation is the pre-inference reading of an image.
// It is created once per generation call and never modified afterwards.
type Interpretation struct {
	DominantColor RGB    `json:"dominant_color"`
	Mood          Mood   `json:"mood"`
	Style         Style  `json:"style"`
	Prompt        string `json:"prompt"`
}

// CaptionResult is the creative-writing artifact returned to callers.
type CaptionResult struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	RawCaption     string `json:"raw_caption"`
	RefinedCaption string `json:"refined_caption"`
	Mood           Mood   `json:"mood"`
	Style          Style  `json:"style"`
	DominantColor  RGB    `json:"dominant_color"`
}
