package service

// QRCodeService defines the interface for QR code generation services
type QRCodeService interface {
	// GeneratePickupQR generates a PNG QR code encoding the order number,
	// scanned at pickup points to look the order up.
	GeneratePickupQR(orderNumber string) ([]byte, error)
}
