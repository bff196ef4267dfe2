// Package catalog defines the two fixed asset catalogs known at startup:
// hardware assets and rental GPU types.
package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// HardwareAsset describes one catalog member eligible for price aggregation.
type HardwareAsset struct {
	ID          string   `yaml:"id"`
	DisplayName string   `yaml:"displayName"`
	SearchTerms []string `yaml:"searchTerms"`
	Family      string   `yaml:"family"` // keyword adapters require alongside the model id, e.g. "rtx" or "ddr5"
	BasePrice   float64  `yaml:"basePrice"`
}

// RentalType describes one rental GPU catalog member.
type RentalType struct {
	ID           string  `yaml:"id"`
	DisplayQuery string  `yaml:"displayQuery"`
	NominalVRAMGB int    `yaml:"nominalVramGb"`
	BasePricePerHour float64 `yaml:"basePricePerHour"`
}

type fixture struct {
	Hardware []HardwareAsset `yaml:"hardware"`
	Rental   []RentalType    `yaml:"rental"`
}

//go:embed catalog.yaml
var embeddedFixture []byte

var (
	hardwareByID = map[string]HardwareAsset{}
	rentalByID   = map[string]RentalType{}
	hardwareIDs  []string
	rentalIDs    []string
)

func init() {
	if err := Load(embeddedFixture); err != nil {
		panic(fmt.Sprintf("catalog: failed to load embedded fixture: %v", err))
	}
}

// Load parses a catalog fixture and replaces the package-level catalogs.
// Exposed for tests that want a smaller fixed catalog.
func Load(data []byte) error {
	var f fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("catalog: parse fixture: %w", err)
	}
	if len(f.Hardware) == 0 {
		return fmt.Errorf("catalog: fixture defines no hardware assets")
	}
	if len(f.Rental) == 0 {
		return fmt.Errorf("catalog: fixture defines no rental types")
	}

	newHardware := make(map[string]HardwareAsset, len(f.Hardware))
	newHardwareIDs := make([]string, 0, len(f.Hardware))
	for _, a := range f.Hardware {
		if a.ID == "" {
			return fmt.Errorf("catalog: hardware entry missing id")
		}
		newHardware[a.ID] = a
		newHardwareIDs = append(newHardwareIDs, a.ID)
	}

	newRental := make(map[string]RentalType, len(f.Rental))
	newRentalIDs := make([]string, 0, len(f.Rental))
	for _, r := range f.Rental {
		if r.ID == "" {
			return fmt.Errorf("catalog: rental entry missing id")
		}
		newRental[r.ID] = r
		newRentalIDs = append(newRentalIDs, r.ID)
	}

	hardwareByID = newHardware
	hardwareIDs = newHardwareIDs
	rentalByID = newRental
	rentalIDs = newRentalIDs
	return nil
}

// HardwareAssetIDs returns the ordered list of known hardware asset ids.
func HardwareAssetIDs() []string {
	out := make([]string, len(hardwareIDs))
	copy(out, hardwareIDs)
	return out
}

// RentalTypeIDs returns the ordered list of known rental type ids.
func RentalTypeIDs() []string {
	out := make([]string, len(rentalIDs))
	copy(out, rentalIDs)
	return out
}

// GetHardwareAsset looks up a hardware asset by id.
func GetHardwareAsset(id string) (HardwareAsset, bool) {
	a, ok := hardwareByID[id]
	return a, ok
}

// GetRentalType looks up a rental type by id.
func GetRentalType(id string) (RentalType, bool) {
	r, ok := rentalByID[id]
	return r, ok
}

// IsHardwareAsset reports whether id is a known hardware asset.
func IsHardwareAsset(id string) bool {
	_, ok := hardwareByID[id]
	return ok
}

// IsRentalType reports whether id is a known rental type.
func IsRentalType(id string) bool {
	_, ok := rentalByID[id]
	return ok
}
