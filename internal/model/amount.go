package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/params"
)

// weiPerEther is 10^18.
var weiPerEther = big.NewInt(params.Ether)

// Amount is a non-negative quantity of ETH held as an exact wei integer.
// The zero value is 0 ETH.
//
// Amounts render as decimal ETH strings ("0.03") in JSON and are stored in
// SQL as the decimal wei integer.
type Amount struct {
	wei *big.Int
}

// NewAmountFromWei returns an Amount holding a copy of wei.
func NewAmountFromWei(wei *big.Int) Amount {
	if wei == nil {
		return Amount{}
	}
	return Amount{wei: new(big.Int).Set(wei)}
}

// ParseEther parses a decimal ETH string such as "0.01" or "1.5".
// Negative values and values with more than 18 decimal places are rejected.
func ParseEther(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, fmt.Errorf("empty amount")
	}

	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return Amount{}, fmt.Errorf("invalid amount %q", s)
	}
	if r.Sign() < 0 {
		return Amount{}, fmt.Errorf("amount must not be negative: %s", s)
	}

	r.Mul(r, new(big.Rat).SetInt(weiPerEther))
	if !r.IsInt() {
		return Amount{}, fmt.Errorf("amount %q has more than 18 decimal places", s)
	}
	return Amount{wei: new(big.Int).Set(r.Num())}, nil
}

// MustParseEther is like ParseEther but panics on error.
func MustParseEther(s string) Amount {
	a, err := ParseEther(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Wei returns a copy of the amount in wei.
func (a Amount) Wei() *big.Int {
	if a.wei == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.wei)
}

func (a Amount) IsZero() bool { return a.wei == nil || a.wei.Sign() == 0 }

func (a Amount) Sign() int {
	if a.wei == nil {
		return 0
	}
	return a.wei.Sign()
}

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return Amount{wei: new(big.Int).Add(a.Wei(), b.Wei())}
}

// Cmp compares a and b and returns -1, 0 or +1.
func (a Amount) Cmp(b Amount) int {
	return a.Wei().Cmp(b.Wei())
}

// Equal reports whether a and b hold the same number of wei.
func (a Amount) Equal(b Amount) bool { return a.Cmp(b) == 0 }

// DivInt returns a / n truncated to whole wei. Dividing by zero yields zero.
func (a Amount) DivInt(n int64) Amount {
	if n == 0 {
		return Amount{}
	}
	return Amount{wei: new(big.Int).Quo(a.Wei(), big.NewInt(n))}
}

// String renders the amount in ETH with trailing zeros trimmed.
func (a Amount) String() string {
	wei := a.Wei()
	sign := ""
	if wei.Sign() < 0 {
		sign = "-"
		wei.Abs(wei)
	}

	whole, frac := new(big.Int).QuoRem(wei, weiPerEther, new(big.Int))
	if frac.Sign() == 0 {
		return sign + whole.String()
	}

	digits := frac.String()
	digits = strings.Repeat("0", 18-len(digits)) + digits
	digits = strings.TrimRight(digits, "0")
	return sign + whole.String() + "." + digits
}

// MarshalJSON encodes the amount as a decimal ETH string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts a decimal ETH string, a JSON number or null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*a = Amount{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	}
	parsed, err := ParseEther(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value stores the amount as its decimal wei string.
func (a Amount) Value() (driver.Value, error) {
	return a.Wei().String(), nil
}

// Scan reads a decimal wei value written by Value.
func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = Amount{}
		return nil
	case int64:
		*a = Amount{wei: big.NewInt(v)}
		return nil
	case []byte:
		return a.scanString(string(v))
	case string:
		return a.scanString(v)
	default:
		return fmt.Errorf("cannot scan %T into Amount", src)
	}
}

func (a *Amount) scanString(s string) error {
	wei, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return fmt.Errorf("invalid wei value %q", s)
	}
	*a = Amount{wei: wei}
	return nil
}
