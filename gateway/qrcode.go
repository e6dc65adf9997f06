package gateway

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/skip2/go-qrcode"
)

const DefaultQRCodeSize = 256

// TicketQRCode renders the ticket number as a PNG QR code. Scanners read the
// number straight from the code.
func TicketQRCode(ticketNumber string, size int) ([]byte, error) {
	qr, err := qrcode.New(ticketNumber, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("could not create QR code for %s: %w", ticketNumber, err)
	}

	buf := new(bytes.Buffer)
	if err := png.Encode(buf, qr.Image(size)); err != nil {
		return nil, fmt.Errorf("could not encode QR code for %s: %w", ticketNumber, err)
	}

	return buf.Bytes(), nil
}
