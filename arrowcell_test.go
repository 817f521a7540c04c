package snowql

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

func TestDecodeArrowColumnDecimalFromI128(t *testing.T) {
	// S6: schema number(26,11), physical i128 = 99_900_000_000
	pool := memory.NewGoAllocator()
	bldr := array.NewDecimal128Builder(pool, &arrow.Decimal128Type{Precision: 26, Scale: 11})
	defer bldr.Release()
	bldr.Append(decimal128.FromI64(99_900_000_000))
	arr := bldr.NewDecimal128Array()
	defer arr.Release()

	rt := RowType{Name: "n", LogicalType: "fixed", Precision: 26, Scale: 11}
	vals, err := decodeArrowColumn(rt, arr)
	if err != nil {
		t.Fatalf("decodeArrowColumn: %v", err)
	}
	if len(vals) != 1 {
		t.Fatalf("len(vals) = %d, want 1", len(vals))
	}
	if vals[0].Kind != KindDecimal {
		t.Fatalf("Kind = %v, want KindDecimal", vals[0].Kind)
	}
	if got, want := vals[0].Dec.String(), "0.99900000000"; got != want {
		t.Errorf("Dec.String() = %q, want %q", got, want)
	}
}

func TestDecodeArrowColumnIntegerUpcastToDecimal(t *testing.T) {
	pool := memory.NewGoAllocator()
	bldr := array.NewInt32Builder(pool)
	defer bldr.Release()
	bldr.Append(12345)
	arr := bldr.NewInt32Array()
	defer arr.Release()

	rt := RowType{Name: "n", LogicalType: "fixed", Precision: 10, Scale: 2}
	vals, err := decodeArrowColumn(rt, arr)
	if err != nil {
		t.Fatalf("decodeArrowColumn: %v", err)
	}
	if vals[0].Kind != KindDecimal || vals[0].Dec.String() != "123.45" {
		t.Errorf("vals[0] = %+v, want Decimal 123.45", vals[0])
	}
}

func TestDecodeArrowColumnBooleanNullability(t *testing.T) {
	pool := memory.NewGoAllocator()
	bldr := array.NewBooleanBuilder(pool)
	defer bldr.Release()
	bldr.Append(true)
	bldr.AppendNull()
	arr := bldr.NewBooleanArray()
	defer arr.Release()

	rt := RowType{Name: "b", LogicalType: "boolean", Nullable: true}
	vals, err := decodeArrowColumn(rt, arr)
	if err != nil {
		t.Fatalf("decodeArrowColumn: %v", err)
	}
	if vals[0].Null || !vals[0].Bool {
		t.Errorf("vals[0] = %+v", vals[0])
	}
	if !vals[1].Null {
		t.Errorf("vals[1] = %+v, want Null", vals[1])
	}
}

func TestDecodeArrowColumnNonNullableRejectsNull(t *testing.T) {
	pool := memory.NewGoAllocator()
	bldr := array.NewBooleanBuilder(pool)
	defer bldr.Release()
	bldr.AppendNull()
	arr := bldr.NewBooleanArray()
	defer arr.Release()

	rt := RowType{Name: "b", LogicalType: "boolean", Nullable: false}
	_, err := decodeArrowColumn(rt, arr)
	if err == nil {
		t.Fatal("expected error for null in non-nullable column")
	}
}

func TestDecodeArrowColumnDate(t *testing.T) {
	pool := memory.NewGoAllocator()
	bldr := array.NewDate32Builder(pool)
	defer bldr.Release()
	bldr.Append(arrow.Date32(0))
	arr := bldr.NewDate32Array()
	defer arr.Release()

	rt := RowType{Name: "d", LogicalType: "date"}
	vals, err := decodeArrowColumn(rt, arr)
	if err != nil {
		t.Fatalf("decodeArrowColumn: %v", err)
	}
	if vals[0].Time.Unix() != 0 {
		t.Errorf("Time = %v, want epoch", vals[0].Time)
	}
}
