package snowql

import "testing"

func TestValueKindFromRowType(t *testing.T) {
	cases := []struct {
		rt   RowType
		json ValueKind
		col  ValueKind
	}{
		{RowType{LogicalType: "boolean"}, KindBoolean, KindBoolean},
		{RowType{LogicalType: "fixed", Precision: 10, Scale: 0}, KindI64, KindI64},
		{RowType{LogicalType: "fixed", Precision: 25, Scale: 0}, KindI128, KindI128},
		{RowType{LogicalType: "fixed", Precision: 26, Scale: 11}, KindFloat, KindDecimal},
		{RowType{LogicalType: "real"}, KindFloat, KindFloat},
		{RowType{LogicalType: "text"}, KindString, KindString},
		{RowType{LogicalType: "binary"}, KindBinary, KindBinary},
		{RowType{LogicalType: "date"}, KindDate, KindDate},
		{RowType{LogicalType: "time"}, KindTime, KindTime},
		{RowType{LogicalType: "timestamp_ntz"}, KindTimestampNTZ, KindTimestampNTZ},
		{RowType{LogicalType: "timestamp_ltz"}, KindTimestampLTZ, KindTimestampLTZ},
		{RowType{LogicalType: "timestamp_tz"}, KindTimestampTZ, KindTimestampTZ},
		{RowType{LogicalType: "variant"}, KindVariant, KindVariant},
		{RowType{LogicalType: "object"}, KindObject, KindObject},
		{RowType{LogicalType: "object", ExtTypeName: "GEOGRAPHY"}, KindGeography, KindGeography},
		{RowType{LogicalType: "object", ExtTypeName: "GEOMETRY"}, KindGeometry, KindGeometry},
		{RowType{LogicalType: "array"}, KindArray, KindArray},
		{RowType{LogicalType: "weird"}, KindUnsupported, KindUnsupported},
	}
	for _, c := range cases {
		if got := c.rt.jsonValueKind(); got != c.json {
			t.Errorf("%+v jsonValueKind() = %v, want %v", c.rt, got, c.json)
		}
		if got := c.rt.valueKind(); got != c.col {
			t.Errorf("%+v valueKind() = %v, want %v", c.rt, got, c.col)
		}
	}
}

func TestRowTypeFromWire(t *testing.T) {
	prec := int64(26)
	scale := int64(11)
	w := wireRowType{Name: "n", Type: "fixed", Nullable: true, Precision: &prec, Scale: &scale}
	rt := rowTypeFromWire(w)
	if rt.Name != "n" || rt.LogicalType != "fixed" || !rt.Nullable || rt.Precision != 26 || rt.Scale != 11 {
		t.Errorf("rowTypeFromWire = %+v", rt)
	}
}
