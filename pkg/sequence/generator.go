package sequence

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"go.uber.org/fx"
)

var Module = fx.Module("sequence",
	fx.Provide(NewCouponCodeGenerator),
)

// Generator produces candidate coupon codes. Codes are random, not
// sequential; uniqueness is enforced by the caller against the store.
type Generator interface {
	NextCouponCode() (string, error)
}

type couponCodeGenerator struct{}

func NewCouponCodeGenerator() Generator {
	return &couponCodeGenerator{}
}

// Ambiguous characters (0/O, 1/I) are excluded so codes survive being read
// off a receipt.
const codeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 10

func (g *couponCodeGenerator) NextCouponCode() (string, error) {
	suffix, err := randomAlphaNumeric(codeLength)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("GRILL-%s", suffix), nil
}

func randomAlphaNumeric(n int) (string, error) {
	b := make([]byte, n)
	for i := range b {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeChars))))
		if err != nil {
			return "", err
		}
		b[i] = codeChars[num.Int64()]
	}
	return string(b), nil
}
