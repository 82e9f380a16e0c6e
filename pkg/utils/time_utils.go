package utils

import "time"

// The gateway reports PaymentDate in local Taiwan time without an offset.
var twLoc = func() *time.Location {
	if loc, err := time.LoadLocation("Asia/Taipei"); err == nil {
		return loc
	}
	return time.FixedZone("CST", 8*3600)
}()

const gatewayTimeLayout = "2006/01/02 15:04:05"

// ParseGatewayTime parses the gateway's "yyyy/MM/dd HH:mm:ss" timestamps.
// Returns the zero time on empty or malformed input so callers can fall back
// to their own clock.
func ParseGatewayTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation(gatewayTimeLayout, raw, twLoc)
	if err != nil {
		return time.Time{}
	}
	return t
}

// FormatGatewayTime renders t the way the gateway expects MerchantTradeDate.
func FormatGatewayTime(t time.Time) string {
	return t.In(twLoc).Format(gatewayTimeLayout)
}

// Store seconds consistently; these mirror the int64 columns on the models.
func NowUnixSeconds() int64 { return time.Now().Unix() }

// FromUnixSeconds converts an epoch value in seconds to Taiwan time.
// Returns zero time if t<=0 to let callers decide how to render.
func FromUnixSeconds(t int64) time.Time {
	if t <= 0 {
		return time.Time{}
	}
	return time.Unix(t, 0).In(twLoc)
}
