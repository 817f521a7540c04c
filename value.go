package snowql

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow/decimal128"
)

// ValueKind identifies which variant of Value a given column produces,
// derived from RowType without ever looking at a cell's payload.
type ValueKind int

const (
	KindBoolean ValueKind = iota
	KindI64
	KindI128
	KindFloat
	KindDecimal
	KindString
	KindBinary
	KindDate
	KindTime
	KindTimestampNTZ
	KindTimestampLTZ
	KindTimestampTZ
	KindVariant
	KindObject
	KindArray
	KindGeography
	KindGeometry
	KindUnsupported
)

func (k ValueKind) String() string {
	switch k {
	case KindBoolean:
		return "boolean"
	case KindI64:
		return "i64"
	case KindI128:
		return "i128"
	case KindFloat:
		return "float"
	case KindDecimal:
		return "decimal"
	case KindString:
		return "string"
	case KindBinary:
		return "binary"
	case KindDate:
		return "date"
	case KindTime:
		return "time"
	case KindTimestampNTZ:
		return "timestamp_ntz"
	case KindTimestampLTZ:
		return "timestamp_ltz"
	case KindTimestampTZ:
		return "timestamp_tz"
	case KindVariant:
		return "variant"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindGeography:
		return "geography"
	case KindGeometry:
		return "geometry"
	default:
		return "unsupported"
	}
}

// Decimal is an exact base-10 number represented as an unscaled 128-bit
// magnitude, a scale (number of digits after the decimal point), and a
// sign. It is never round-tripped through float64.
type Decimal struct {
	Unscaled decimal128.Num // always non-negative; sign lives in Negative
	Scale    uint8
	Negative bool
}

// String renders the decimal in plain fixed-point notation, e.g.
// "0.99900000000" for Unscaled=99900000000, Scale=11.
func (d Decimal) String() string {
	digits := d.Unscaled.BigInt().String()
	neg := d.Negative
	if digits != "0" && digits[0] == '-' {
		// decimal128.Num.BigInt should already be non-negative here,
		// but guard against a signed magnitude slipping through.
		neg = true
		digits = digits[1:]
	}
	scale := int(d.Scale)
	for len(digits) <= scale {
		digits = "0" + digits
	}
	var out string
	if scale == 0 {
		out = digits
	} else {
		split := len(digits) - scale
		out = digits[:split] + "." + digits[split:]
	}
	if neg {
		out = "-" + out
	}
	return out
}

// Value is one decoded cell. Exactly one of the payload fields (Bool
// through Raw) is meaningful, selected by Kind; Null reports whether
// the cell was SQL NULL (in which case every payload field is the zero
// value).
type Value struct {
	Kind ValueKind
	Null bool

	Bool    bool
	I64     int64
	I128    Int128
	Float   float64
	Dec     Decimal
	Str     string
	Bin     []byte
	Time    time.Time // Date / Time / NaiveDateTime / DateTimeUtc / DateTimeTZ all carried here
	Obj     map[string]json.RawMessage
	Arr     []json.RawMessage
	Variant json.RawMessage
	Raw     json.RawMessage // Unsupported
}

// Int128 is a signed 128-bit integer, used for fixed columns with
// precision > 18 whose declared ValueKind is I128.
type Int128 struct {
	Hi int64
	Lo uint64
}

func (v Value) String() string {
	if v.Null {
		return "NULL"
	}
	switch v.Kind {
	case KindBoolean:
		return fmt.Sprintf("%v", v.Bool)
	case KindI64:
		return fmt.Sprintf("%d", v.I64)
	case KindI128:
		return fmt.Sprintf("%d:%d", v.I128.Hi, v.I128.Lo)
	case KindFloat:
		return fmt.Sprintf("%v", v.Float)
	case KindDecimal:
		return v.Dec.String()
	case KindString:
		return v.Str
	case KindBinary:
		return fmt.Sprintf("%x", v.Bin)
	case KindDate, KindTime, KindTimestampNTZ, KindTimestampLTZ, KindTimestampTZ:
		return v.Time.String()
	default:
		return string(v.Raw)
	}
}

func nullValue(kind ValueKind) Value { return Value{Kind: kind, Null: true} }
