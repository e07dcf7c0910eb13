package service

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	xdraw "golang.org/x/image/draw"
)

// Images travel as base64-encoded PNG, matching what the canvas frontend
// produces with toDataURL (minus the data: prefix).

const previewMaxSide = 256

// CreateImage renders a blank white canvas of the given dimensions.
func CreateImage(width int, height int) (string, error) {
	if err := ValidateDimensions(width, height); err != nil {
		return "", err
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	return encodeImage(img)
}

// CompressImage produces the listing thumbnail: the image scaled so its
// longest side is at most 256px. Images already small enough are re-encoded
// as-is.
func CompressImage(encoded string) (string, error) {
	img, err := decodeImage(encoded)
	if err != nil {
		return "", err
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= previewMaxSide && h <= previewMaxSide {
		return encodeImage(img)
	}

	scale := float64(previewMaxSide) / float64(w)
	if h > w {
		scale = float64(previewMaxSide) / float64(h)
	}
	dstW := int(float64(w) * scale)
	dstH := int(float64(h) * scale)
	if dstW < 1 {
		dstW = 1
	}
	if dstH < 1 {
		dstH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)

	return encodeImage(dst)
}

func decodeImage(encoded string) (image.Image, error) {
	if encoded == "" {
		return nil, errors.New("image is empty")
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.New("image is not valid base64")
	}

	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.New("image is not a valid PNG")
	}

	return img, nil
}

func encodeImage(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
