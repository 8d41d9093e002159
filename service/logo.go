package service

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"log"

	"github.com/disintegration/imaging"
)

// logoMaxWidth is the printed logo width in pixels
const logoMaxWidth = 400

// PrepareLogo loads the logo image at path, shrinks it to logoMaxWidth keeping
// the aspect ratio and returns it as a PNG data URI for the order sheet
func PrepareLogo(path string) (string, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open logo: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > logoMaxWidth {
		log.Printf("🔄 Resizing logo: %dx%d -> width %d", bounds.Dx(), bounds.Dy(), logoMaxWidth)
		img = imaging.Resize(img, logoMaxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("failed to encode logo: %w", err)
	}

	log.Printf("✓ Logo prepared: %d bytes", buf.Len())
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
