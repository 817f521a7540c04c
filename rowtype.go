package snowql

// RowType is one column's schema element. Both the JSON and the
// columnar decoders take it from the response's rowtype array via
// rowTypeFromWire; it is not rebuilt from Arrow field metadata.
type RowType struct {
	Name        string
	LogicalType string
	ExtTypeName string
	Nullable    bool
	Precision   int64
	Scale       int64
	ByteLength  int64
}

func rowTypeFromWire(w wireRowType) RowType {
	rt := RowType{
		Name:        w.Name,
		LogicalType: w.Type,
		ExtTypeName: w.ExtTypeName,
		Nullable:    w.Nullable,
	}
	if w.Precision != nil {
		rt.Precision = *w.Precision
	}
	if w.Scale != nil {
		rt.Scale = *w.Scale
	}
	if w.ByteLength != nil {
		rt.ByteLength = *w.ByteLength
	}
	return rt
}

// valueKind derives the declared ValueKind for this column per the
// logicalType/scale/precision table in the data model.
func (rt RowType) valueKind() ValueKind {
	switch rt.LogicalType {
	case "boolean":
		return KindBoolean
	case "fixed":
		if rt.Scale > 0 {
			return KindDecimal
		}
		if rt.Precision > 18 {
			return KindI128
		}
		return KindI64
	case "real":
		return KindFloat
	case "text":
		return KindString
	case "binary":
		return KindBinary
	case "date":
		return KindDate
	case "time":
		return KindTime
	case "timestamp_ntz":
		return KindTimestampNTZ
	case "timestamp_ltz":
		return KindTimestampLTZ
	case "timestamp_tz":
		return KindTimestampTZ
	case "variant":
		return KindVariant
	case "object":
		switch rt.ExtTypeName {
		case "GEOGRAPHY":
			return KindGeography
		case "GEOMETRY":
			return KindGeometry
		default:
			return KindObject
		}
	case "array":
		return KindArray
	default:
		return KindUnsupported
	}
}

// jsonValueKind is the kind used specifically by the JSON row decoder,
// where fixed columns with scale>0 decode as Float (lossy) rather than
// Decimal, per the documented JSON/columnar asymmetry.
func (rt RowType) jsonValueKind() ValueKind {
	if rt.LogicalType == "fixed" && rt.Scale > 0 {
		return KindFloat
	}
	return rt.valueKind()
}
