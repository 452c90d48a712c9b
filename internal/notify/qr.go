package notify

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// TicketQR renders a ticket ID as a PNG QR code suitable for entrance
// scanning. High error correction survives crumpled printouts.
func TicketQR(ticketID string) ([]byte, error) {
	png, err := qrcode.Encode(ticketID, qrcode.High, 300)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
