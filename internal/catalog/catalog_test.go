package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmbeddedFixtureLoadsAllKnownAssets(t *testing.T) {
	assert.Contains(t, HardwareAssetIDs(), "GPU_RTX4090")
	assert.Contains(t, HardwareAssetIDs(), "RAM_DDR5_32")
	assert.Contains(t, RentalTypeIDs(), "RENTAL_H100_80GB")
}

func TestGetHardwareAsset(t *testing.T) {
	asset, ok := GetHardwareAsset("GPU_RTX4090")
	assert.True(t, ok)
	assert.Equal(t, "rtx", asset.Family)
	assert.Equal(t, 1599.99, asset.BasePrice)

	_, ok = GetHardwareAsset("NOT_A_REAL_ID")
	assert.False(t, ok)
}

func TestGetRentalType(t *testing.T) {
	rental, ok := GetRentalType("RENTAL_A100_80GB")
	assert.True(t, ok)
	assert.Equal(t, 80, rental.NominalVRAMGB)

	_, ok = GetRentalType("NOT_A_REAL_ID")
	assert.False(t, ok)
}

func TestIsHardwareAssetAndIsRentalType(t *testing.T) {
	assert.True(t, IsHardwareAsset("GPU_RX7900XTX"))
	assert.False(t, IsHardwareAsset("RENTAL_H100_80GB"))
	assert.True(t, IsRentalType("RENTAL_RTX4090"))
	assert.False(t, IsRentalType("GPU_RTX4090"))
}

func TestLoadRejectsEmptyHardware(t *testing.T) {
	err := Load([]byte("hardware: []\nrental:\n  - id: RENTAL_X\n    displayQuery: x\n"))
	assert.Error(t, err)
}

func TestLoadRejectsEmptyRental(t *testing.T) {
	err := Load([]byte("hardware:\n  - id: GPU_X\n    displayName: x\nrental: []\n"))
	assert.Error(t, err)
}

func TestLoadRejectsMissingID(t *testing.T) {
	err := Load([]byte("hardware:\n  - displayName: x\nrental:\n  - id: RENTAL_X\n"))
	assert.Error(t, err)
}

func TestLoadReplacesCatalogThenRestoreFixture(t *testing.T) {
	original := embeddedFixture
	defer func() {
		_ = Load(original)
	}()

	err := Load([]byte(`
hardware:
  - id: GPU_TEST
    displayName: "Test GPU"
    family: test
    basePrice: 1.00
rental:
  - id: RENTAL_TEST
    displayQuery: "Test"
    nominalVramGb: 1
    basePricePerHour: 0.01
`))
	assert.NoError(t, err)
	assert.True(t, IsHardwareAsset("GPU_TEST"))
	assert.False(t, IsHardwareAsset("GPU_RTX4090"))
}
