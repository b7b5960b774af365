package normalize

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Canonical type names used in the typed parameter casts of a key.
const (
	TypeInt64   = "__std__::int64"
	TypeFloat64 = "__std__::float64"
	TypeBigInt  = "__std__::bigint"
	TypeDecimal = "__std__::decimal"
	TypeStr     = "__std__::str"
)

// Value is a literal extracted from a query. The set of implementations is
// closed: Str, Int, Float, BigInt and Decimal.
type Value interface {
	// TypeName is the canonical type the literal is cast to in the key.
	TypeName() string
	// String renders the value without EdgeQL quoting.
	String() string

	key() valueKey
}

type valueKind uint8

const (
	kindStr valueKind = iota
	kindInt
	kindFloat
	kindBigInt
	kindDecimal
)

// valueKey is the comparable identity of a Value, used to deduplicate
// literals into a single variable.
type valueKey struct {
	kind valueKind
	s    string
	n    uint64
}

// Str is a string literal.
type Str string

func (Str) TypeName() string { return TypeStr }
func (s Str) String() string { return string(s) }
func (s Str) key() valueKey { return valueKey{kind: kindStr, s: string(s)} }

// Int is a 64-bit signed integer literal.
type Int int64

func (Int) TypeName() string { return TypeInt64 }
func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }
func (i Int) key() valueKey { return valueKey{kind: kindInt, n: uint64(i)} }

// Float is a float64 literal compared by its IEEE-754 bit pattern, so
// 0.0 and -0.0 are distinct and a NaN equals itself. This only affects how
// literals are merged into variables, never the value that is bound.
type Float struct {
	bits uint64
}

// NewFloat wraps f.
func NewFloat(f float64) Float {
	return Float{bits: math.Float64bits(f)}
}

// Float64 returns the wrapped number.
func (f Float) Float64() float64 { return math.Float64frombits(f.bits) }

func (Float) TypeName() string { return TypeFloat64 }
func (f Float) String() string {
	return strconv.FormatFloat(f.Float64(), 'g', -1, 64)
}
func (f Float) key() valueKey { return valueKey{kind: kindFloat, n: f.bits} }

// BigInt is an arbitrary-precision integer literal (42n).
type BigInt struct {
	v *big.Int
}

// NewBigInt wraps a copy of v.
func NewBigInt(v *big.Int) BigInt {
	return BigInt{v: new(big.Int).Set(v)}
}

// Int returns a copy of the wrapped integer.
func (b BigInt) Int() *big.Int {
	if b.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(b.v)
}

func (BigInt) TypeName() string { return TypeBigInt }
func (b BigInt) String() string { return b.Int().String() }
func (b BigInt) key() valueKey { return valueKey{kind: kindBigInt, s: b.String()} }

// Decimal is an arbitrary-precision decimal literal (1.5n). Decimals that
// are numerically equal share a variable regardless of scale.
type Decimal struct {
	d decimal.Decimal
}

// NewDecimal wraps d.
func NewDecimal(d decimal.Decimal) Decimal {
	return Decimal{d: d}
}

// Decimal returns the wrapped number.
func (d Decimal) Decimal() decimal.Decimal { return d.d }

func (Decimal) TypeName() string { return TypeDecimal }

// String renders d in plain notation when its normalized exponent is within
// ±plainExponent and as <coefficient>e<exponent> otherwise, so the output
// never grows with the exponent.
func (d Decimal) String() string {
	coef, exp := d.normal()
	if exp < -plainExponent || exp > plainExponent {
		return coef + "e" + strconv.FormatInt(exp, 10)
	}
	c, _ := new(big.Int).SetString(coef, 10)
	return decimal.NewFromBigInt(c, int32(exp)).String() //nolint:gosec // exp is within ±plainExponent
}

func (d Decimal) key() valueKey {
	coef, exp := d.normal()
	return valueKey{kind: kindDecimal, s: coef + "e" + strconv.FormatInt(exp, 10)}
}

const plainExponent = 64

// normal returns the coefficient of d without trailing zeros and the
// exponent adjusted for them. Numerically equal decimals share the pair.
func (d Decimal) normal() (string, int64) {
	coef := d.d.Coefficient().String()
	if coef == "0" {
		return coef, 0
	}
	trimmed := strings.TrimRight(coef, "0")
	return trimmed, int64(d.d.Exponent()) + int64(len(coef)-len(trimmed))
}

// Equal reports whether a and b would be merged into the same variable.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.key() == b.key()
}
