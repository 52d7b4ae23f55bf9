package mysqlnative

import (
	"encoding/binary"
	"fmt"

	"github.com/shopspring/decimal"
)

// Date is a calendar date with no time-of-day component, per spec.md §4.A's
// binary Date encoding (L>=4: u16 year, u8 month, u8 day).
type Date struct {
	Year  uint16
	Month uint8
	Day   uint8
}

func (d Date) isZero() bool { return d.Year == 0 && d.Month == 0 && d.Day == 0 }

// String renders the canonical SQL date format, YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// ClockTime is a MySQL TIME value: an interval, possibly negative and
// possibly spanning more than 24 hours, per spec.md §4.A's binary Time
// encoding (L>=8: negative flag, u32 days, u8 hour, u8 minute, u8 second).
// Fractional seconds are not represented; the wire's fractional component is
// ignored on decode, per spec.md §4.A.
type ClockTime struct {
	Negative bool
	Days     uint32
	Hour     uint8
	Minute   uint8
	Second   uint8
}

func (t ClockTime) isZero() bool {
	return !t.Negative && t.Days == 0 && t.Hour == 0 && t.Minute == 0 && t.Second == 0
}

// String renders the canonical SQL time format, [-]HH:MM:SS, folding whole
// days into the hour component the way MySQL's own TIME display does.
func (t ClockTime) String() string {
	sign := ""
	if t.Negative {
		sign = "-"
	}
	hours := t.Days*24 + uint32(t.Hour)
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, hours, t.Minute, t.Second)
}

// DateTime is a calendar date with a time-of-day, per spec.md §4.A's binary
// DateTime encoding (L>=7: date + u8 hour, u8 minute, u8 second).
type DateTime struct {
	Date   Date
	Hour   uint8
	Minute uint8
	Second uint8
}

func (dt DateTime) isZero() bool {
	return dt.Date.isZero() && dt.Hour == 0 && dt.Minute == 0 && dt.Second == 0
}

// String renders the canonical SQL datetime format, YYYY-MM-DD HH:MM:SS.
func (dt DateTime) String() string {
	return fmt.Sprintf("%s %02d:%02d:%02d", dt.Date.String(), dt.Hour, dt.Minute, dt.Second)
}

// ValueKind tags the variant held by a Value. Per spec.md §9's "Dynamic
// value container" design note, this is a tagged enum over the supported SQL
// types plus a fallback Raw variant for wire types the decoder does not
// otherwise recognize.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindBool
	KindI64
	KindU64
	KindF32
	KindF64
	KindDecimal
	KindBytes
	KindString
	KindDate
	KindTime
	KindDateTime
	KindRaw
)

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindI64:
		return "i64"
	case KindU64:
		return "u64"
	case KindF32:
		return "f32"
	case KindF64:
		return "f64"
	case KindDecimal:
		return "decimal"
	case KindBytes:
		return "bytes"
	case KindString:
		return "string"
	case KindDate:
		return "date"
	case KindTime:
		return "time"
	case KindDateTime:
		return "datetime"
	case KindRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// Value is a single column value or prepared-statement argument. The zero
// Value is KindNull, so a Row's null columns need no separate bool array:
// null is represented natively in the value type itself (spec.md §3's Row
// design decision).
type Value struct {
	kind  ValueKind
	width uint8 // bit width hint for KindI64/KindU64, used only when binding a prepared-statement parameter
	i64   int64
	u64   uint64
	f32   float32
	f64   float64
	dec   decimal.Decimal
	b     []byte
	date  Date
	tm    ClockTime
	dt    DateTime
}

func NullValue() Value             { return Value{kind: KindNull} }
func BoolValue(v bool) Value       { return Value{kind: KindBool, i64: boolToI64(v)} }
func Int64Value(v int64) Value     { return Value{kind: KindI64, i64: v, width: 64} }
func Uint64Value(v uint64) Value   { return Value{kind: KindU64, u64: v, width: 64} }

// Int8Value, Int16Value and Int32Value hold the same KindI64 variant as
// Int64Value but tag it with the host width so a prepared-statement bind
// picks the matching narrow wire type (TINY/SHORT/INT) instead of always
// widening to LONGLONG.
func Int8Value(v int8) Value   { return Value{kind: KindI64, i64: int64(v), width: 8} }
func Int16Value(v int16) Value { return Value{kind: KindI64, i64: int64(v), width: 16} }
func Int32Value(v int32) Value { return Value{kind: KindI64, i64: int64(v), width: 32} }

func Uint8Value(v uint8) Value   { return Value{kind: KindU64, u64: uint64(v), width: 8} }
func Uint16Value(v uint16) Value { return Value{kind: KindU64, u64: uint64(v), width: 16} }
func Uint32Value(v uint32) Value { return Value{kind: KindU64, u64: uint64(v), width: 32} }

func Float32Value(v float32) Value { return Value{kind: KindF32, f32: v} }
func Float64Value(v float64) Value { return Value{kind: KindF64, f64: v} }
func DecimalValue(v decimal.Decimal) Value {
	return Value{kind: KindDecimal, dec: v}
}
func BytesValue(v []byte) Value      { return Value{kind: KindBytes, b: v} }
func StringValue(v string) Value     { return Value{kind: KindString, b: []byte(v)} }
func DateValue(v Date) Value         { return Value{kind: KindDate, date: v} }
func TimeValue(v ClockTime) Value    { return Value{kind: KindTime, tm: v} }
func DateTimeValue(v DateTime) Value { return Value{kind: KindDateTime, dt: v} }
func RawValue(v []byte) Value        { return Value{kind: KindRaw, b: v} }

func boolToI64(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

// Kind reports which variant this Value holds.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether this value is SQL NULL.
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.i64 != 0, true
}

func (v Value) Int64() (int64, bool) {
	if v.kind != KindI64 {
		return 0, false
	}
	return v.i64, true
}

func (v Value) Uint64() (uint64, bool) {
	if v.kind != KindU64 {
		return 0, false
	}
	return v.u64, true
}

func (v Value) Float32() (float32, bool) {
	if v.kind != KindF32 {
		return 0, false
	}
	return v.f32, true
}

func (v Value) Float64() (float64, bool) {
	if v.kind != KindF64 {
		return 0, false
	}
	return v.f64, true
}

func (v Value) Decimal() (decimal.Decimal, bool) {
	if v.kind != KindDecimal {
		return decimal.Decimal{}, false
	}
	return v.dec, true
}

func (v Value) Bytes() ([]byte, bool) {
	if v.kind != KindBytes && v.kind != KindRaw {
		return nil, false
	}
	return v.b, true
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "<nil>"
	case KindString, KindBytes, KindRaw:
		return string(v.b)
	case KindDate:
		return v.date.String()
	case KindTime:
		return v.tm.String()
	case KindDateTime:
		return v.dt.String()
	case KindDecimal:
		return v.dec.String()
	default:
		return fmt.Sprintf("%v", v.asInterface())
	}
}

// StringValueOK returns the string payload and whether v actually holds one
// (KindString); unlike String, it does not stringify other kinds.
func (v Value) StringValueOK() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return string(v.b), true
}

func (v Value) Date() (Date, bool) {
	if v.kind != KindDate {
		return Date{}, false
	}
	return v.date, true
}

func (v Value) Time() (ClockTime, bool) {
	if v.kind != KindTime {
		return ClockTime{}, false
	}
	return v.tm, true
}

func (v Value) DateTime() (DateTime, bool) {
	if v.kind != KindDateTime {
		return DateTime{}, false
	}
	return v.dt, true
}

func (v Value) asInterface() interface{} {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		b, _ := v.Bool()
		return b
	case KindI64:
		return v.i64
	case KindU64:
		return v.u64
	case KindF32:
		return v.f32
	case KindF64:
		return v.f64
	case KindDecimal:
		return v.dec
	case KindDate:
		return v.date
	case KindTime:
		return v.tm
	case KindDateTime:
		return v.dt
	default:
		return v.b
	}
}

// decodeBinaryDate decodes an already-length-stripped binary Date payload
// (spec.md §4.A): empty means the zero date.
func decodeBinaryDate(b []byte) (Date, error) {
	if len(b) == 0 {
		return Date{}, nil
	}
	if len(b) < 4 {
		return Date{}, fmt.Errorf("mysqlnative: short binary date payload (%d bytes)", len(b))
	}
	return Date{
		Year:  binary.LittleEndian.Uint16(b[0:2]),
		Month: b[2],
		Day:   b[3],
	}, nil
}

// decodeBinaryDateTime decodes an already-length-stripped binary DateTime
// payload. Fractional seconds, present past byte 7, are ignored.
func decodeBinaryDateTime(b []byte) (DateTime, error) {
	if len(b) == 0 {
		return DateTime{}, nil
	}
	if len(b) < 4 {
		return DateTime{}, fmt.Errorf("mysqlnative: short binary datetime payload (%d bytes)", len(b))
	}
	dt := DateTime{Date: Date{
		Year:  binary.LittleEndian.Uint16(b[0:2]),
		Month: b[2],
		Day:   b[3],
	}}
	if len(b) >= 7 {
		dt.Hour, dt.Minute, dt.Second = b[4], b[5], b[6]
	}
	return dt, nil
}

// decodeBinaryTime decodes an already-length-stripped binary Time payload.
// Fractional seconds, present past byte 8, are ignored.
func decodeBinaryTime(b []byte) (ClockTime, error) {
	if len(b) == 0 {
		return ClockTime{}, nil
	}
	if len(b) < 8 {
		return ClockTime{}, fmt.Errorf("mysqlnative: short binary time payload (%d bytes)", len(b))
	}
	return ClockTime{
		Negative: b[0] != 0,
		Days:     binary.LittleEndian.Uint32(b[1:5]),
		Hour:     b[5],
		Minute:   b[6],
		Second:   b[7],
	}, nil
}

// appendBinaryDate appends a length-prefixed binary Date (used when packing
// prepared-statement parameters).
func appendBinaryDate(dst []byte, d Date) []byte {
	if d.isZero() {
		return appendU8(dst, 0)
	}
	dst = appendU8(dst, 4)
	dst = appendU16(dst, d.Year)
	return append(dst, d.Month, d.Day)
}

// appendBinaryDateTime appends a length-prefixed binary DateTime.
func appendBinaryDateTime(dst []byte, dt DateTime) []byte {
	if dt.isZero() {
		return appendU8(dst, 0)
	}
	if dt.Hour == 0 && dt.Minute == 0 && dt.Second == 0 {
		dst = appendU8(dst, 4)
		dst = appendU16(dst, dt.Date.Year)
		return append(dst, dt.Date.Month, dt.Date.Day)
	}
	dst = appendU8(dst, 7)
	dst = appendU16(dst, dt.Date.Year)
	return append(dst, dt.Date.Month, dt.Date.Day, dt.Hour, dt.Minute, dt.Second)
}

// appendBinaryTime appends a length-prefixed binary Time.
func appendBinaryTime(dst []byte, t ClockTime) []byte {
	if t.isZero() {
		return appendU8(dst, 0)
	}
	dst = appendU8(dst, 8)
	dst = appendU8(dst, boolToByte(t.Negative))
	dst = appendU32(dst, t.Days)
	return append(dst, t.Hour, t.Minute, t.Second)
}

func boolToByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
