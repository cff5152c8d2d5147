package market

import "fmt"

type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case Buy, Sell:
		return Side(s), nil
	}
	return "", fmt.Errorf("unknown side %q", s)
}

// Sign is +1 for buys and -1 for sells.
func (s Side) Sign() int {
	if s == Sell {
		return -1
	}
	return 1
}
