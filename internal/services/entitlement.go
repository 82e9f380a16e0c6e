package services

import "time"

// ExtendExpiry returns the new entitlement end: the plan's months added to
// the later of paidAt and the current expiry. Remaining time stacks instead
// of resetting.
func ExtendExpiry(currentExpiry *int64, months int, paidAt time.Time) int64 {
	anchor := paidAt
	if currentExpiry != nil {
		if cur := time.Unix(*currentExpiry, 0); cur.After(anchor) {
			anchor = cur
		}
	}
	return anchor.AddDate(0, months, 0).Unix()
}
