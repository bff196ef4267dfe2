package httpfetch

import "strings"

const HardwarePriceFloorUSD = 50.0

var accessoryBlacklist = []string{
	"cable", "adapter", "mount", "case", "sleeve", "bracket", "riser",
	"fan only", "backplate", "cooler only", "waterblock",
}

// IsRelevantListing reports whether title plausibly names the hardware
// asset: it must contain the model identifier plus the family keyword, and
// must not match the accessory blacklist.
func IsRelevantListing(title, modelIdentifier, familyKeyword string) bool {
	lower := strings.ToLower(title)
	if !strings.Contains(lower, strings.ToLower(modelIdentifier)) {
		return false
	}
	if familyKeyword != "" && !strings.Contains(lower, strings.ToLower(familyKeyword)) {
		return false
	}
	for _, blacklisted := range accessoryBlacklist {
		if strings.Contains(lower, blacklisted) {
			return false
		}
	}
	return true
}

// PassesPriceFloor reports whether price clears the hardware price floor.
func PassesPriceFloor(price float64) bool {
	return price >= HardwarePriceFloorUSD
}
