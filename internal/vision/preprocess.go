// Package vision prepares raw frames for neural inference and decodes the
// raw tensors the models emit back into typed detections.
package vision

import (
	"bytes"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/nfnt/resize"

	"github.com/vigilsafe/vigil/internal/domain"
)

// InputSize is the fixed square input resolution of all three models.
const InputSize = 640

// TensorLen is the element count of one CHW input tensor.
const TensorLen = 3 * InputSize * InputSize

// Input is a preprocessed frame ready for inference. Width and Height carry
// the original image dimensions so detection boxes can be rescaled back to
// source coordinates after decoding.
type Input struct {
	Tensor []float32 // planar CHW, 1x3x640x640
	Width  int
	Height int
}

// Preprocess decodes raw image bytes, stretches them to 640x640 (aspect
// ratio is intentionally ignored, a fill resize matching the training-time
// preprocessing of the models), normalizes to [0,1] and reorders from
// interleaved HWC to the planar CHW layout the inference runtime expects.
func Preprocess(imageBytes []byte) (*Input, error) {
	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	bounds := img.Bounds()
	origWidth, origHeight := bounds.Dx(), bounds.Dy()

	resized := resize.Resize(InputSize, InputSize, img, resize.Bilinear)

	tensor := make([]float32, TensorLen)
	stride := InputSize * InputSize
	idx := 0
	for y := 0; y < InputSize; y++ {
		for x := 0; x < InputSize; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()
			tensor[idx] = float32(r>>8) / 255.0
			tensor[idx+stride] = float32(g>>8) / 255.0
			tensor[idx+2*stride] = float32(b>>8) / 255.0
			idx++
		}
	}

	return &Input{
		Tensor: tensor,
		Width:  origWidth,
		Height: origHeight,
	}, nil
}
