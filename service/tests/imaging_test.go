package service_test

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zlnvch/canvashub/service"
)

func decodePNG(t *testing.T, encoded string) image.Image {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	return img
}

func TestCreateImage_Dimensions(t *testing.T) {
	encoded, err := service.CreateImage(320, 240)
	assert.NoError(t, err)

	img := decodePNG(t, encoded)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 240, img.Bounds().Dy())
}

func TestCreateImage_InvalidDimensions(t *testing.T) {
	_, err := service.CreateImage(0, 100)
	assert.Error(t, err)

	_, err = service.CreateImage(100, 9999)
	assert.Error(t, err)
}

func TestCompressImage_ScalesLongestSideTo256(t *testing.T) {
	encoded, err := service.CreateImage(1024, 512)
	require.NoError(t, err)

	preview, err := service.CompressImage(encoded)
	assert.NoError(t, err)

	img := decodePNG(t, preview)
	assert.Equal(t, 256, img.Bounds().Dx())
	assert.Equal(t, 128, img.Bounds().Dy())
}

func TestCompressImage_TallImage(t *testing.T) {
	encoded, err := service.CreateImage(512, 1024)
	require.NoError(t, err)

	preview, err := service.CompressImage(encoded)
	assert.NoError(t, err)

	img := decodePNG(t, preview)
	assert.Equal(t, 128, img.Bounds().Dx())
	assert.Equal(t, 256, img.Bounds().Dy())
}

func TestCompressImage_SmallImageKeepsDimensions(t *testing.T) {
	encoded, err := service.CreateImage(100, 50)
	require.NoError(t, err)

	preview, err := service.CompressImage(encoded)
	assert.NoError(t, err)

	img := decodePNG(t, preview)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())
}

func TestCompressImage_RejectsGarbage(t *testing.T) {
	_, err := service.CompressImage("")
	assert.Error(t, err)

	_, err = service.CompressImage("!!!not base64!!!")
	assert.Error(t, err)

	// Valid base64 that is not a PNG
	notPNG := base64.StdEncoding.EncodeToString([]byte("plain text"))
	_, err = service.CompressImage(notPNG)
	assert.Error(t, err)
}
