package service

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/convolution"
	"github.com/timmy/artcaption/internal/domain"
	"github.com/timmy/artcaption/internal/logger"
	"github.com/timmy/artcaption/internal/source"
	"golang.org/x/image/draw"
)

// sampleSize is the side of the square the image is resampled to before color counting.
const sampleSize = 150

const (
	edgeThreshold       = 100
	abstractEdgeDensity = 0.12
	panoramicAspect     = 1.8
	portraitAspect      = 0.8
)

// ErrEmptyImage is returned when an image has no pixels to sample.
var ErrEmptyImage = errors.New("image has no pixels")

// ImageInterpreter derives mood, style and dominant color from an image
// and folds them into a generation prompt.
type ImageInterpreter struct{}

// NewImageInterpreter creates a new image interpreter.
func NewImageInterpreter() *ImageInterpreter {
	return &ImageInterpreter{}
}

// Interpret reads img and returns its interpretation.
// Parameters:
//   - ctx: context carrying the request logger.
//   - img: decoded image; never modified.
//
// Returns:
//   - *domain.Interpretation: color, mood, style and the derived prompt.
//   - error: non-nil if the image cannot be resampled.
func (i *ImageInterpreter) Interpret(ctx context.Context, img image.Image) (*domain.Interpretation, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("failed to extract dominant color: %w", ErrEmptyImage)
	}
	img = source.Flatten(img)

	color, err := DominantColor(img)
	if err != nil {
		return nil, fmt.Errorf("failed to extract dominant color: %w", err)
	}
	style, err := ClassifyStyle(img)
	if err != nil {
		return nil, fmt.Errorf("failed to classify style: %w", err)
	}
	mood := ClassifyMood(color)

	logger.FromContext(ctx).WithFields(logger.Fields{
		logger.FieldStage: "interpret",
		"color":           color.String(),
		"mood":            mood,
		"style":           style,
	}).Debug("Image interpreted")

	return &domain.Interpretation{
		DominantColor: color,
		Mood:          mood,
		Style:         style,
		Prompt:        InterpretationPrompt(mood, style),
	}, nil
}

// InterpretationPrompt renders the prompt fragment for a mood and style.
func InterpretationPrompt(mood domain.Mood, style domain.Style) string {
	return fmt.Sprintf("A %s painting rendered in %s.", mood, style)
}

// DominantColor returns the most frequent exact RGB triple after resampling
// img to 150x150. Ties go to the lexicographically smallest triple.
// Alpha is ignored: a half-transparent pixel counts with its straight color.
func DominantColor(img image.Image) (domain.RGB, error) {
	if img == nil || img.Bounds().Empty() {
		return domain.RGB{}, ErrEmptyImage
	}
	img = source.Flatten(img)

	// Nearest-neighbour keeps the palette exact: no blended colors are introduced.
	sample := image.NewRGBA(image.Rect(0, 0, sampleSize, sampleSize))
	draw.NearestNeighbor.Scale(sample, sample.Bounds(), img, img.Bounds(), draw.Src, nil)

	counts := make(map[domain.RGB]int, 256)
	for p := 0; p+3 < len(sample.Pix); p += 4 {
		counts[domain.RGB{R: sample.Pix[p], G: sample.Pix[p+1], B: sample.Pix[p+2]}]++
	}

	var best domain.RGB
	bestCount := -1
	for c, n := range counts {
		if n > bestCount || (n == bestCount && c.Less(best)) {
			best, bestCount = c, n
		}
	}
	return best, nil
}

// ClassifyMood maps a color to a mood label. Rules are checked in order; the first match wins.
func ClassifyMood(c domain.RGB) domain.Mood {
	r, g, b := float64(c.R), float64(c.G), float64(c.B)
	total := r + g + b
	if total < 1 {
		total = 1
	}
	rRatio, gRatio, bRatio := r/total, g/total, b/total

	switch {
	case rRatio > 0.5 && gRatio < 0.25:
		return domain.MoodWarm
	case bRatio > 0.5 && rRatio < 0.25:
		return domain.MoodCool
	case gRatio > 0.4 && rRatio > 0.3:
		return domain.MoodFresh
	case r > 180 && g > 180 && b < 120:
		return domain.MoodSunny
	case r < 100 && g < 100 && b < 100:
		return domain.MoodDark
	default:
		return domain.MoodNeutral
	}
}

// ClassifyStyle maps aspect ratio and edge density to a style label.
func ClassifyStyle(img image.Image) (domain.Style, error) {
	if img == nil || img.Bounds().Empty() {
		return "", ErrEmptyImage
	}
	bounds := img.Bounds()
	aspect := float64(bounds.Dx()) / float64(bounds.Dy())
	density := EdgeDensity(img)

	switch {
	case density > abstractEdgeDensity:
		return domain.StyleAbstract, nil
	case aspect > panoramicAspect:
		return domain.StylePanoramic, nil
	case aspect < portraitAspect:
		return domain.StylePortrait, nil
	default:
		return domain.StyleBalanced, nil
	}
}

// findEdges is the 3x3 Laplacian used by the usual find-edges filter.
var findEdges = func() *convolution.Kernel {
	k := convolution.NewKernel(3, 3)
	for j := range k.Matrix {
		k.Matrix[j] = -1
	}
	k.Matrix[4] = 8
	return k
}()

// EdgeDensity is the fraction of pixels whose edge intensity exceeds 100.
// Edges come from a 3x3 Laplacian over the luma channel; border pixels
// keep their luma value, as the usual find-edges filter does.
func EdgeDensity(img image.Image) float64 {
	if img == nil || img.Bounds().Empty() {
		return 0
	}
	gray := toLuma(source.Flatten(img))
	edges := convolution.Convolve(gray, findEdges, &convolution.Options{KeepAlpha: true})

	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	count := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var v uint8
			if x == 0 || y == 0 || x == w-1 || y == h-1 {
				v = gray.Pix[gray.PixOffset(x, y)]
			} else {
				v = edges.Pix[edges.PixOffset(x, y)]
			}
			if v > edgeThreshold {
				count++
			}
		}
	}
	return float64(count) / float64(w*h)
}

// toLuma converts img to an 8-bit gray image anchored at the origin.
func toLuma(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}
