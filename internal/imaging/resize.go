package imaging

import (
	"fmt"

	"github.com/h2non/bimg"
	"go.uber.org/zap"

	"github.com/hikinggallery/gallery-api/models"
)

// Rendition is one scaled JPEG output of an original image.
type Rendition struct {
	Name      models.VariantName
	KeySuffix string
	Data      []byte
}

type variantSize struct {
	name  models.VariantName
	width int
}

var variantSizes = []variantSize{
	{models.VariantV2048, 2048},
	{models.VariantV1024, 1024},
	{models.VariantV800, 800},
	{models.VariantThumbnail, 80},
}

// Renditions scales the raw image into the standard variant widths. A
// variant that fails to scale is skipped; the batch itself never fails.
func Renditions(raw []byte, log *zap.Logger) []Rendition {
	var out []Rendition
	for _, sp := range variantSizes {
		data, err := bimg.NewImage(raw).Process(bimg.Options{
			Width: sp.width,
			Type:  bimg.JPEG,
		})
		if err != nil {
			log.Error("unable to resize image", zap.Int("width", sp.width), zap.Error(err))
			continue
		}
		out = append(out, Rendition{Name: sp.name, KeySuffix: suffixFor(sp.width), Data: data})
	}
	return out
}

func suffixFor(width int) string {
	if width < 100 {
		return "_thumbnail.jpg"
	}
	return fmt.Sprintf("_%d.jpg", width)
}
