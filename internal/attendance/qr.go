package attendance

import qrcode "github.com/skip2/go-qrcode"

// RenderPNG encodes a code token as a QR image for display screens.
func RenderPNG(token string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(token, qrcode.Medium, size)
}
