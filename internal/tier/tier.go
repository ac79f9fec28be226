// Package tier derives a loyalty tier from a point balance. A tier is a view
// over the balance, never stored as independent truth.
package tier

type Tier string

const (
	Silver   Tier = "silver"
	Gold     Tier = "gold"
	Platinum Tier = "platinum"
)

const (
	goldThreshold     = 500
	platinumThreshold = 1500
)

// ForBalance returns the tier for the given point balance.
func ForBalance(balance int) Tier {
	switch {
	case balance >= platinumThreshold:
		return Platinum
	case balance >= goldThreshold:
		return Gold
	default:
		return Silver
	}
}
