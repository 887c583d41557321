package qrcode

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/config"
)

func TestQRCodeService_GeneratePickupQR(t *testing.T) {
	svc := NewQRCodeService(nil)

	png, err := svc.GeneratePickupQR("ORD-123456001")
	require.NoError(t, err)
	assert.NotEmpty(t, png)

	// PNG magic bytes.
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestQRCodeService_ConfiguredSize(t *testing.T) {
	cfg := &config.Config{QRCode: &config.QRCodeConfig{Size: 128, ErrorCorrectionLevel: "H"}}
	svc := NewQRCodeService(cfg)

	png, err := svc.GeneratePickupQR("ORD-123456002")
	require.NoError(t, err)
	assert.NotEmpty(t, png)
}
