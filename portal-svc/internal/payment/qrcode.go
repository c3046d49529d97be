package payment

import "github.com/skip2/go-qrcode"

// QRGenerator renders a hand-off URL so the checkout can be finished on another device.
type QRGenerator interface {
	Generate(handoffURL string) ([]byte, error)
}

type DefaultQRGenerator struct {
	Size int
}

func (g DefaultQRGenerator) Generate(handoffURL string) ([]byte, error) {
	size := g.Size
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(handoffURL, qrcode.Medium, size)
}
