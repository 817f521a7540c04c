package snowql

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/decimal128"
)

// decodeArrowColumn decodes one Arrow column into row-ordered Values,
// per the physical-shape rules in the component design: narrow
// integers are upcast into the column's declared ValueKind, decimals
// carry their unscaled magnitude losslessly, and three distinct
// temporal physical shapes all collapse into the same Value variants
// the JSON path produces.
func decodeArrowColumn(rt RowType, col arrow.Array) ([]Value, error) {
	kind := rt.valueKind()
	n := col.Len()
	out := make([]Value, n)

	switch kind {
	case KindBoolean:
		b, ok := col.(*array.Boolean)
		if !ok {
			return nil, newDeserializationError(rt.Name, "", fmt.Errorf("expected boolean array, got %T", col))
		}
		for i := 0; i < n; i++ {
			if col.IsNull(i) {
				out[i] = nullValue(kind)
				continue
			}
			out[i] = Value{Kind: kind, Bool: b.Value(i)}
		}

	case KindI64, KindI128, KindDecimal, KindFloat:
		vals, err := decodeArrowNumeric(rt, col, kind)
		if err != nil {
			return nil, err
		}
		out = vals

	case KindDate:
		d, ok := col.(*array.Date32)
		if !ok {
			return nil, newDeserializationError(rt.Name, "", fmt.Errorf("expected date32 array, got %T", col))
		}
		for i := 0; i < n; i++ {
			if col.IsNull(i) {
				out[i] = nullValue(kind)
				continue
			}
			days := int64(d.Value(i))
			out[i] = Value{Kind: kind, Time: time.Unix(days*86400, 0).UTC()}
		}

	case KindTime, KindTimestampNTZ, KindTimestampLTZ, KindTimestampTZ:
		vals, err := decodeArrowTemporal(rt, col, kind)
		if err != nil {
			return nil, err
		}
		out = vals

	case KindString:
		s, err := arrowStringValues(col)
		if err != nil {
			return nil, newDeserializationError(rt.Name, "", err)
		}
		for i := 0; i < n; i++ {
			if col.IsNull(i) {
				out[i] = nullValue(kind)
				continue
			}
			out[i] = Value{Kind: kind, Str: s(i)}
		}

	case KindBinary:
		bi, ok := col.(*array.Binary)
		if !ok {
			return nil, newDeserializationError(rt.Name, "", fmt.Errorf("expected binary array, got %T", col))
		}
		for i := 0; i < n; i++ {
			if col.IsNull(i) {
				out[i] = nullValue(kind)
				continue
			}
			buf := bi.Value(i)
			cp := make([]byte, len(buf))
			copy(cp, buf)
			out[i] = Value{Kind: kind, Bin: cp}
		}

	case KindVariant, KindObject, KindArray, KindGeography, KindGeometry:
		s, err := arrowStringValues(col)
		if err != nil {
			return nil, newDeserializationError(rt.Name, "", err)
		}
		for i := 0; i < n; i++ {
			if col.IsNull(i) {
				out[i] = nullValue(kind)
				continue
			}
			text := s(i)
			v, err := decodeArrowTextual(rt, kind, text)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}

	default:
		for i := 0; i < n; i++ {
			out[i] = Value{Kind: KindUnsupported}
		}
	}

	if err := checkNullability(rt, col, n); err != nil {
		return nil, err
	}
	return out, nil
}

func checkNullability(rt RowType, col arrow.Array, n int) error {
	if rt.Nullable {
		return nil
	}
	for i := 0; i < n; i++ {
		if col.IsNull(i) {
			return newDeserializationError(rt.Name, "", errNullInNonNullableColumn)
		}
	}
	return nil
}

func decodeArrowTextual(rt RowType, kind ValueKind, text string) (Value, error) {
	switch kind {
	case KindVariant:
		return Value{Kind: kind, Variant: json.RawMessage(text)}, nil
	case KindArray:
		var arr []json.RawMessage
		if err := json.Unmarshal([]byte(text), &arr); err != nil {
			return Value{}, newDeserializationError(rt.Name, text, err)
		}
		return Value{Kind: kind, Arr: arr}, nil
	default: // object, geography, geometry
		var obj map[string]json.RawMessage
		if err := json.Unmarshal([]byte(text), &obj); err != nil {
			return Value{}, newDeserializationError(rt.Name, text, err)
		}
		return Value{Kind: kind, Obj: obj}, nil
	}
}

// arrowStringValues returns an index accessor over either a string
// array or a large-string array, the UTF-8 shapes used on the wire for
// text/variant/object/array columns; any other array type is an error.
func arrowStringValues(col arrow.Array) (func(int) string, error) {
	switch c := col.(type) {
	case *array.String:
		return c.Value, nil
	case *array.LargeString:
		return c.Value, nil
	default:
		return nil, fmt.Errorf("expected string array, got %T", col)
	}
}

// decodeArrowNumeric widens any integer physical column into the
// declared I64/I128/Decimal/Float ValueKind, using rt.Scale for the
// decimal construction. A decimal128 physical column always yields
// Decimal values paired with rt.Scale, whatever the declared kind.
func decodeArrowNumeric(rt RowType, col arrow.Array, kind ValueKind) ([]Value, error) {
	n := col.Len()
	out := make([]Value, n)
	scale := uint8(rt.Scale)

	if dec, ok := col.(*array.Decimal128); ok {
		for i := 0; i < n; i++ {
			if col.IsNull(i) {
				out[i] = nullValue(kind)
				continue
			}
			out[i] = decimalValueFromNum(dec.Value(i), scale)
		}
		return out, nil
	}

	getInt, err := arrowIntAccessor(col)
	if err != nil {
		return nil, newDeserializationError(rt.Name, "", err)
	}
	for i := 0; i < n; i++ {
		if col.IsNull(i) {
			out[i] = nullValue(kind)
			continue
		}
		n64 := getInt(i)
		out[i] = upcastInt(n64, kind, scale)
	}
	return out, nil
}

func decimalValueFromNum(num decimal128.Num, scale uint8) Value {
	neg := num.Sign() < 0
	mag := num
	if neg {
		mag = num.Negate()
	}
	return Value{Kind: KindDecimal, Dec: Decimal{Unscaled: mag, Scale: scale, Negative: neg}}
}

func upcastInt(n int64, kind ValueKind, scale uint8) Value {
	switch kind {
	case KindDecimal:
		return decimalValueFromNum(decimal128.FromI64(n), scale)
	case KindI128:
		if n < 0 {
			return Value{Kind: kind, I128: Int128{Hi: -1, Lo: uint64(n)}}
		}
		return Value{Kind: kind, I128: Int128{Hi: 0, Lo: uint64(n)}}
	case KindFloat:
		return Value{Kind: kind, Float: float64(n) / math.Pow10(int(scale))}
	default:
		return Value{Kind: KindI64, I64: n}
	}
}

// arrowIntAccessor returns an index accessor widening any signed or
// unsigned 8/16/32/64-bit integer array to int64.
func arrowIntAccessor(col arrow.Array) (func(int) int64, error) {
	switch c := col.(type) {
	case *array.Int8:
		return func(i int) int64 { return int64(c.Value(i)) }, nil
	case *array.Int16:
		return func(i int) int64 { return int64(c.Value(i)) }, nil
	case *array.Int32:
		return func(i int) int64 { return int64(c.Value(i)) }, nil
	case *array.Int64:
		return func(i int) int64 { return c.Value(i) }, nil
	case *array.Uint8:
		return func(i int) int64 { return int64(c.Value(i)) }, nil
	case *array.Uint16:
		return func(i int) int64 { return int64(c.Value(i)) }, nil
	case *array.Uint32:
		return func(i int) int64 { return int64(c.Value(i)) }, nil
	case *array.Uint64:
		return func(i int) int64 { return int64(c.Value(i)) }, nil
	default:
		return nil, fmt.Errorf("expected an integer array, got %T", col)
	}
}

// decodeArrowTemporal handles the three physical shapes used for
// time/timestamp columns: a bare tick integer, an {epoch, fraction}
// struct, and an {epoch, fraction, offset} struct for timestamp_tz.
func decodeArrowTemporal(rt RowType, col arrow.Array, kind ValueKind) ([]Value, error) {
	n := col.Len()
	out := make([]Value, n)

	if st, ok := col.(*array.Struct); ok {
		epochCol, fracCol, offsetCol, err := structTemporalFields(st, kind)
		if err != nil {
			return nil, newDeserializationError(rt.Name, "", err)
		}
		for i := 0; i < n; i++ {
			if col.IsNull(i) {
				out[i] = nullValue(kind)
				continue
			}
			epoch := epochCol(i)
			nanos := fracCol(i)
			switch kind {
			case KindTimestampTZ:
				loc := locationFromBiasedOffset(int(offsetCol(i)))
				out[i] = Value{Kind: kind, Time: time.Unix(epoch, nanos).In(loc)}
			case KindTimestampLTZ:
				out[i] = Value{Kind: kind, Time: time.Unix(epoch, nanos).UTC()}
			default: // timestamp_ntz
				out[i] = Value{Kind: kind, Time: time.Unix(epoch, nanos).UTC()}
			}
		}
		return out, nil
	}

	// bare tick integer: scale metadata says 10^(9-scale) nanoseconds per tick
	getInt, err := arrowIntAccessor(col)
	if err != nil {
		return nil, newDeserializationError(rt.Name, "", err)
	}
	nanosPerTick := int64(math.Pow10(9 - int(rt.Scale)))
	for i := 0; i < n; i++ {
		if col.IsNull(i) {
			out[i] = nullValue(kind)
			continue
		}
		ticks := getInt(i)
		nanos := ticks * nanosPerTick
		switch kind {
		case KindTime:
			out[i] = Value{Kind: kind, Time: time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(nanos))}
		default:
			out[i] = Value{Kind: kind, Time: time.Unix(0, nanos).UTC()}
		}
	}
	return out, nil
}

func structTemporalFields(st *array.Struct, kind ValueKind) (epoch, frac func(int) int64, offset func(int) int64, err error) {
	dt, ok := st.DataType().(*arrow.StructType)
	if !ok {
		return nil, nil, nil, fmt.Errorf("temporal struct has unexpected data type %T", st.DataType())
	}
	var epochIdx, fracIdx, offsetIdx = -1, -1, -1
	for i, f := range dt.Fields() {
		switch f.Name {
		case "epoch":
			epochIdx = i
		case "fraction":
			fracIdx = i
		case "offset":
			offsetIdx = i
		}
	}
	if epochIdx < 0 || fracIdx < 0 {
		return nil, nil, nil, fmt.Errorf("temporal struct missing epoch/fraction fields")
	}
	epochAccessor, err := arrowIntAccessor(st.Field(epochIdx))
	if err != nil {
		return nil, nil, nil, err
	}
	fracAccessor, err := arrowIntAccessor(st.Field(fracIdx))
	if err != nil {
		return nil, nil, nil, err
	}
	offsetAccessor := func(int) int64 { return 0 }
	if kind == KindTimestampTZ {
		if offsetIdx < 0 {
			return nil, nil, nil, fmt.Errorf("timestamp_tz struct missing offset field")
		}
		offsetAccessor, err = arrowIntAccessor(st.Field(offsetIdx))
		if err != nil {
			return nil, nil, nil, err
		}
	}
	return epochAccessor, fracAccessor, offsetAccessor, nil
}
