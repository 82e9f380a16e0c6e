package ecpay

import (
	"crypto/rand"
	"time"
)

// TradeRefMaxLen is the gateway's hard cap on MerchantTradeNo length.
const TradeRefMaxLen = 20

// MerchantTradeNo may only contain alphanumerics.
const tradeRefAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// NewTradeRef builds a MerchantTradeNo: prefix + UTC MMDDHHMMSS + random
// alphanumeric filler up to the gateway cap. The random part carries the
// collision resistance for refs minted within the same second; the unique
// index on payments.trade_ref is the hard guarantee.
func NewTradeRef(prefix string) string {
	stamp := time.Now().UTC().Format("0102150405")

	n := TradeRefMaxLen - len(prefix) - len(stamp)
	if n < 0 {
		ref := prefix + stamp
		return ref[:TradeRefMaxLen]
	}
	return prefix + stamp + randomToken(n)
}

func randomToken(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// No usable entropy source is not survivable for payment refs.
		panic(err)
	}
	for i, b := range buf {
		buf[i] = tradeRefAlphabet[int(b)%len(tradeRefAlphabet)]
	}
	return string(buf)
}
