// Package qr wraps the QR encode and decode capabilities behind the two
// operations the relay needs: turning a session token into a scannable PNG
// and pulling a token back out of a camera frame.
package qr

import (
	"image"

	"github.com/makiuchi-d/gozxing"
	zxqrcode "github.com/makiuchi-d/gozxing/qrcode"
	"github.com/pkg/errors"
	qrcode "github.com/skip2/go-qrcode"
)

// ErrNoCode is returned when a frame holds no decodable QR code. Continuous
// scanners swallow it and keep going; it is not a user-facing error.
var ErrNoCode = errors.New("no QR code in image")

// imageSize is the pixel width/height of generated QR images. The encoder
// still picks the symbol version from the payload length, so a full-length
// session token fits.
const imageSize = 512

// Encode renders text as a QR code PNG.
func Encode(text string) ([]byte, error) {
	png, err := qrcode.Encode(text, qrcode.Medium, imageSize)
	if err != nil {
		return nil, errors.Wrap(err, "[qr.Encode] qrcode.Encode")
	}
	return png, nil
}

// Decode extracts the QR payload from an image frame. Frames without a
// decodable code return ErrNoCode.
func Decode(img image.Image) (string, error) {
	bitmap, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", errors.Wrap(err, "[qr.Decode] NewBinaryBitmapFromImage")
	}

	result, err := zxqrcode.NewQRCodeReader().Decode(bitmap, nil)
	if err != nil {
		return "", ErrNoCode
	}
	return result.GetText(), nil
}
