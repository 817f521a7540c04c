package snowql

import (
	"encoding/hex"
	"encoding/json"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// decodeJSONCell decodes one cell of the row-oriented JSON encoding.
// raw is the verbatim JSON value for this cell (possibly the literal
// `null`). The returned Value's Kind is always rt.jsonValueKind();
// Null is set when raw is JSON null.
func decodeJSONCell(rt RowType, raw json.RawMessage) (Value, error) {
	kind := rt.jsonValueKind()
	if isJSONNull(raw) {
		if !rt.Nullable {
			return Value{}, newDeserializationError(rt.Name, string(raw), errNullInNonNullableColumn)
		}
		return nullValue(kind), nil
	}

	var s string
	// Most scalars arrive as JSON strings; object/array arrive as a
	// stringified JSON document, and variant is kept as the raw JSON.
	if err := json.Unmarshal(raw, &s); err != nil {
		s = ""
	}

	switch kind {
	case KindBoolean:
		switch s {
		case "0":
			return Value{Kind: kind, Bool: false}, nil
		case "1":
			return Value{Kind: kind, Bool: true}, nil
		default:
			return Value{}, newDeserializationError(rt.Name, s, errBadBooleanLiteral)
		}
	case KindI64:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Value{}, newDeserializationError(rt.Name, s, err)
		}
		return Value{Kind: kind, I64: n}, nil
	case KindI128:
		n, err := parseInt128(s)
		if err != nil {
			return Value{}, newDeserializationError(rt.Name, s, err)
		}
		return Value{Kind: kind, I128: n}, nil
	case KindFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, newDeserializationError(rt.Name, s, err)
		}
		return Value{Kind: kind, Float: f}, nil
	case KindString:
		return Value{Kind: kind, Str: s}, nil
	case KindBinary:
		b, err := hex.DecodeString(s)
		if err != nil {
			return Value{}, newDeserializationError(rt.Name, s, err)
		}
		return Value{Kind: kind, Bin: b}, nil
	case KindDate:
		days, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Value{}, newDeserializationError(rt.Name, s, err)
		}
		t := time.Unix(0, 0).UTC().AddDate(0, 0, int(days))
		return Value{Kind: kind, Time: t}, nil
	case KindTime:
		secs, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, newDeserializationError(rt.Name, s, err)
		}
		nanos := int64(math.Round(secs * 1e9))
		t := time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(nanos))
		return Value{Kind: kind, Time: t}, nil
	case KindTimestampNTZ, KindTimestampLTZ:
		t, err := parseEpochSeconds(s)
		if err != nil {
			return Value{}, newDeserializationError(rt.Name, s, err)
		}
		return Value{Kind: kind, Time: t}, nil
	case KindTimestampTZ:
		t, err := parseTimestampTZ(s)
		if err != nil {
			return Value{}, newDeserializationError(rt.Name, s, err)
		}
		return Value{Kind: kind, Time: t}, nil
	case KindVariant:
		return Value{Kind: kind, Variant: json.RawMessage(raw)}, nil
	case KindObject, KindGeography, KindGeometry:
		m, err := parseJSONStringObject(s)
		if err != nil {
			return Value{}, newDeserializationError(rt.Name, s, err)
		}
		return Value{Kind: kind, Obj: m}, nil
	case KindArray:
		arr, err := parseJSONStringArray(s)
		if err != nil {
			return Value{}, newDeserializationError(rt.Name, s, err)
		}
		return Value{Kind: kind, Arr: arr}, nil
	default:
		return Value{Kind: KindUnsupported, Raw: json.RawMessage(raw)}, nil
	}
}

func isJSONNull(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "null"
}

// parseEpochSeconds splits a `"<seconds>.<fraction>"` decimal string
// into whole seconds and rounded nanoseconds without ever multiplying
// the full float by 1e9, which loses precision at epoch scale.
func parseEpochSeconds(s string) (time.Time, error) {
	sec, fracNanos, err := splitDecimalSeconds(s)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(sec, fracNanos).UTC(), nil
}

func splitDecimalSeconds(s string) (sec int64, nanos int64, err error) {
	whole := s
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole = s[:i]
		frac = s[i+1:]
	}
	sec, err = strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, 0, err
	}
	if frac == "" {
		return sec, 0, nil
	}
	for len(frac) < 10 {
		frac += "0"
	}
	n, err := strconv.ParseInt(frac[:9], 10, 64)
	if err != nil {
		return 0, 0, err
	}
	if frac[9] >= '5' && frac[9] <= '9' {
		n++
	}
	if strings.HasPrefix(whole, "-") && n > 0 {
		// floor for negative values: "-1.25" is -2s plus 0.75s
		sec--
		n = 1e9 - n
	}
	return sec, n, nil
}

// parseTimestampTZ parses the `"<seconds> <biased offset minutes>"`
// payload used by timestamp_tz cells.
func parseTimestampTZ(s string) (time.Time, error) {
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return time.Time{}, errBadTimestampTZLiteral
	}
	sec, nanos, err := splitDecimalSeconds(parts[0])
	if err != nil {
		return time.Time{}, err
	}
	biased, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, err
	}
	loc := locationFromBiasedOffset(biased)
	return time.Unix(sec, nanos).In(loc), nil
}

func parseJSONStringObject(s string) (map[string]jsonRaw, error) {
	var m map[string]jsonRaw
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, err
	}
	return m, nil
}

func parseJSONStringArray(s string) ([]jsonRaw, error) {
	var a []jsonRaw
	if err := json.Unmarshal([]byte(s), &a); err != nil {
		return nil, err
	}
	return a, nil
}

type jsonRaw = json.RawMessage

// parseInt128 parses a base-10 literal into a two's-complement Int128
// via math/big, then splits it into hi/lo 64-bit halves.
func parseInt128(s string) (Int128, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Int128{}, errBadIntegerLiteral
	}
	mask := new(big.Int).Lsh(big.NewInt(1), 64)
	mask.Sub(mask, big.NewInt(1))

	twos := new(big.Int).Set(n)
	if n.Sign() < 0 {
		// two's complement over 128 bits: twos = 2^128 + n
		mod := new(big.Int).Lsh(big.NewInt(1), 128)
		twos.Add(mod, n)
	}
	lo := new(big.Int).And(twos, mask)
	hi := new(big.Int).Rsh(twos, 64)
	hi.And(hi, mask)
	return Int128{Hi: int64(hi.Uint64()), Lo: lo.Uint64()}, nil
}
