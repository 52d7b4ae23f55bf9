package mysqlnative

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Row decoding: spec.md §4.D. Text-protocol rows (unprepared queries) encode
// every column as an LCS of its ASCII text form; binary-protocol rows
// (prepared-statement results) encode a leading null bitmap followed by
// fixed-width or length-prefixed values per column type. Both modes can
// straddle a packet boundary mid-value; a short Reader read is retried by
// pulling the next physical frame via more, the cursor-retry contract
// codec.go's errShortBuffer exists for.

// Row is an ordered sequence of typed column values. A null column's Value
// is the zero Value (KindNull); there is no separate null bitmap to consult,
// per spec.md §3's design decision.
type Row struct {
	values []Value
}

// Len returns the column count.
func (r Row) Len() int { return len(r.values) }

// Value returns the value at column i.
func (r Row) Value(i int) Value { return r.values[i] }

// IsNull reports whether column i is SQL NULL.
func (r Row) IsNull(i int) bool { return r.values[i].IsNull() }

// readWithRetry runs fn against r, and on a short-buffer error pulls another
// physical frame via more and retries, until fn succeeds or fails for a
// reason other than running out of bytes.
func readWithRetry[T any](r *Reader, more func() ([]byte, error), fn func(*Reader) (T, error)) (T, error) {
	for {
		v, err := fn(r)
		if err == nil {
			return v, nil
		}
		if !IsShortBuffer(err) {
			var zero T
			return zero, err
		}
		next, ferr := more()
		if ferr != nil {
			var zero T
			return zero, ferr
		}
		r.Append(next)
	}
}

// decodeRow dispatches to the text or binary row decoder.
func decodeRow(headers ResultSetHeaders, payload []byte, binary bool, more func() ([]byte, error)) (Row, error) {
	if binary {
		return decodeBinaryRow(headers, payload, more)
	}
	return decodeTextRow(headers, payload, more)
}

func decodeTextRow(headers ResultSetHeaders, payload []byte, more func() ([]byte, error)) (Row, error) {
	r := NewReader(payload)
	values := make([]Value, len(headers.Fields))
	for i, fd := range headers.Fields {
		var raw []byte
		var ok bool
		for {
			var err error
			raw, ok, err = r.ConsumeLCS()
			if err == nil {
				break
			}
			if !IsShortBuffer(err) {
				return Row{}, err
			}
			next, ferr := more()
			if ferr != nil {
				return Row{}, ferr
			}
			r.Append(next)
		}
		if !ok {
			values[i] = NullValue()
			continue
		}
		v, err := decodeTextValue(raw, fd)
		if err != nil {
			return Row{}, err
		}
		values[i] = v
	}
	return Row{values: values}, nil
}

func decodeTextValue(raw []byte, fd FieldDescription) (Value, error) {
	switch fd.Type {
	case TypeTiny, TypeShort, TypeLong, TypeInt24, TypeLongLong, TypeYear:
		if fd.Flags&FlagUnsigned != 0 {
			u, err := strconv.ParseUint(string(raw), 10, 64)
			if err != nil {
				return Value{}, fmt.Errorf("mysqlnative: malformed integer column %q: %w", raw, err)
			}
			return Uint64Value(u), nil
		}
		i, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("mysqlnative: malformed integer column %q: %w", raw, err)
		}
		return Int64Value(i), nil
	case TypeFloat:
		f, err := strconv.ParseFloat(string(raw), 32)
		if err != nil {
			return Value{}, fmt.Errorf("mysqlnative: malformed float column %q: %w", raw, err)
		}
		return Float32Value(float32(f)), nil
	case TypeDouble:
		f, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return Value{}, fmt.Errorf("mysqlnative: malformed double column %q: %w", raw, err)
		}
		return Float64Value(f), nil
	case TypeDecimal, TypeNewDecimal:
		d, err := decimal.NewFromString(string(raw))
		if err != nil {
			return Value{}, fmt.Errorf("mysqlnative: malformed decimal column %q: %w", raw, err)
		}
		return DecimalValue(d), nil
	case TypeBit:
		if len(raw) == 1 {
			return BoolValue(raw[0] != 0), nil
		}
		return RawValue(append([]byte(nil), raw...)), nil
	case TypeDate:
		d, err := parseTextDate(string(raw))
		if err != nil {
			return Value{}, err
		}
		return DateValue(d), nil
	case TypeTime:
		t, err := parseTextTime(string(raw))
		if err != nil {
			return Value{}, err
		}
		return TimeValue(t), nil
	case TypeDateTime, TypeTimestamp:
		dt, err := parseTextDateTime(string(raw))
		if err != nil {
			return Value{}, err
		}
		return DateTimeValue(dt), nil
	case TypeVarChar, TypeVarString, TypeString, TypeEnum, TypeSet,
		TypeTinyBlob, TypeMediumBlob, TypeLongBlob, TypeBlob:
		if isBinaryCharset(fd.Charset) {
			return BytesValue(append([]byte(nil), raw...)), nil
		}
		s, err := decodeText(raw, fd.Charset)
		if err != nil {
			return Value{}, err
		}
		return StringValue(s), nil
	default:
		return RawValue(append([]byte(nil), raw...)), nil
	}
}

func parseTextDate(s string) (Date, error) {
	parts := strings.SplitN(s, "-", 3)
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("mysqlnative: malformed date %q", s)
	}
	y, err := strconv.Atoi(parts[0])
	if err != nil {
		return Date{}, fmt.Errorf("mysqlnative: malformed date %q: %w", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return Date{}, fmt.Errorf("mysqlnative: malformed date %q: %w", s, err)
	}
	d, err := strconv.Atoi(parts[2])
	if err != nil {
		return Date{}, fmt.Errorf("mysqlnative: malformed date %q: %w", s, err)
	}
	return Date{Year: uint16(y), Month: uint8(m), Day: uint8(d)}, nil
}

func parseTextTime(s string) (ClockTime, error) {
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return ClockTime{}, fmt.Errorf("mysqlnative: malformed time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return ClockTime{}, fmt.Errorf("mysqlnative: malformed time %q: %w", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return ClockTime{}, fmt.Errorf("mysqlnative: malformed time %q: %w", s, err)
	}
	secStr := parts[2]
	if idx := strings.IndexByte(secStr, '.'); idx >= 0 {
		secStr = secStr[:idx] // fractional seconds are not represented, per spec.md §4.A
	}
	sec, err := strconv.Atoi(secStr)
	if err != nil {
		return ClockTime{}, fmt.Errorf("mysqlnative: malformed time %q: %w", s, err)
	}
	return ClockTime{
		Negative: neg,
		Days:     uint32(h / 24),
		Hour:     uint8(h % 24),
		Minute:   uint8(m),
		Second:   uint8(sec),
	}, nil
}

func parseTextDateTime(s string) (DateTime, error) {
	parts := strings.SplitN(s, " ", 2)
	d, err := parseTextDate(parts[0])
	if err != nil {
		return DateTime{}, err
	}
	if len(parts) == 1 {
		return DateTime{Date: d}, nil
	}
	t, err := parseTextTime(parts[1])
	if err != nil {
		return DateTime{}, err
	}
	return DateTime{Date: d, Hour: t.Hour, Minute: t.Minute, Second: t.Second}, nil
}

// binaryNullBitmapLen returns the byte width of a binary-row null bitmap for
// n columns: ⌈(n+2)/8⌉, reserving the first two bits of byte 0 for the
// protocol's own use ahead of the first column's null bit. Equivalent to
// (n+9)/8 using floor (integer) division, which is the wire-correct form of
// spec.md §4.D's literal ⌈(n+9)/8⌉ — see DESIGN.md for the resolution of
// this discrepancy.
func binaryNullBitmapLen(n int) int {
	return (n + 7 + 2) / 8
}

func decodeBinaryRow(headers ResultSetHeaders, payload []byte, more func() ([]byte, error)) (Row, error) {
	r := NewReader(payload)

	hdr, err := readWithRetry(r, more, (*Reader).ConsumeU8)
	if err != nil {
		return Row{}, err
	}
	if hdr != 0 {
		return Row{}, protoErrf("malformed binary row: expected 0x00 header, got 0x%x", hdr)
	}

	n := len(headers.Fields)
	bitmapLen := binaryNullBitmapLen(n)
	bitmap, err := readWithRetry(r, more, func(r *Reader) ([]byte, error) { return r.ConsumeFixed(bitmapLen) })
	if err != nil {
		return Row{}, err
	}

	values := make([]Value, n)
	for i, fd := range headers.Fields {
		bitIndex := i + 2
		if bitmap[bitIndex/8]&(1<<uint(bitIndex%8)) != 0 {
			values[i] = NullValue()
			continue
		}
		v, err := readWithRetry(r, more, func(r *Reader) (Value, error) { return decodeBinaryValue(r, fd) })
		if err != nil {
			return Row{}, err
		}
		values[i] = v
	}
	return Row{values: values}, nil
}

func decodeBinaryValue(r *Reader, fd FieldDescription) (Value, error) {
	switch fd.Type {
	case TypeTiny:
		b, err := r.ConsumeU8()
		if err != nil {
			return Value{}, err
		}
		if fd.Flags&FlagUnsigned != 0 {
			return Uint8Value(b), nil
		}
		return Int8Value(int8(b)), nil
	case TypeShort, TypeYear:
		v, err := r.ConsumeU16()
		if err != nil {
			return Value{}, err
		}
		if fd.Flags&FlagUnsigned != 0 {
			return Uint16Value(v), nil
		}
		return Int16Value(int16(v)), nil
	case TypeLong, TypeInt24:
		v, err := r.ConsumeU32()
		if err != nil {
			return Value{}, err
		}
		if fd.Flags&FlagUnsigned != 0 {
			return Uint32Value(v), nil
		}
		return Int32Value(int32(v)), nil
	case TypeLongLong:
		v, err := r.ConsumeU64()
		if err != nil {
			return Value{}, err
		}
		if fd.Flags&FlagUnsigned != 0 {
			return Uint64Value(v), nil
		}
		return Int64Value(int64(v)), nil
	case TypeFloat:
		v, err := r.ConsumeU32()
		if err != nil {
			return Value{}, err
		}
		return Float32Value(bitsFloat32(v)), nil
	case TypeDouble:
		v, err := r.ConsumeU64()
		if err != nil {
			return Value{}, err
		}
		return Float64Value(bitsFloat64(v)), nil
	case TypeDecimal, TypeNewDecimal:
		raw, ok, err := r.ConsumeLCS()
		if err != nil {
			return Value{}, err
		}
		if !ok {
			return NullValue(), nil
		}
		d, derr := decimal.NewFromString(string(raw))
		if derr != nil {
			return Value{}, fmt.Errorf("mysqlnative: malformed decimal column %q: %w", raw, derr)
		}
		return DecimalValue(d), nil
	case TypeBit:
		raw, ok, err := r.ConsumeLCS()
		if err != nil {
			return Value{}, err
		}
		if !ok {
			return NullValue(), nil
		}
		if len(raw) == 1 {
			return BoolValue(raw[0] != 0), nil
		}
		return RawValue(append([]byte(nil), raw...)), nil
	case TypeDate:
		raw, ok, err := r.ConsumeLCS()
		if err != nil {
			return Value{}, err
		}
		if !ok {
			return NullValue(), nil
		}
		d, derr := decodeBinaryDate(raw)
		if derr != nil {
			return Value{}, derr
		}
		return DateValue(d), nil
	case TypeTime:
		raw, ok, err := r.ConsumeLCS()
		if err != nil {
			return Value{}, err
		}
		if !ok {
			return NullValue(), nil
		}
		t, derr := decodeBinaryTime(raw)
		if derr != nil {
			return Value{}, derr
		}
		return TimeValue(t), nil
	case TypeDateTime, TypeTimestamp:
		raw, ok, err := r.ConsumeLCS()
		if err != nil {
			return Value{}, err
		}
		if !ok {
			return NullValue(), nil
		}
		dt, derr := decodeBinaryDateTime(raw)
		if derr != nil {
			return Value{}, derr
		}
		return DateTimeValue(dt), nil
	case TypeVarChar, TypeVarString, TypeString, TypeEnum, TypeSet,
		TypeTinyBlob, TypeMediumBlob, TypeLongBlob, TypeBlob:
		raw, ok, err := r.ConsumeLCS()
		if err != nil {
			return Value{}, err
		}
		if !ok {
			return NullValue(), nil
		}
		if isBinaryCharset(fd.Charset) {
			return BytesValue(append([]byte(nil), raw...)), nil
		}
		s, serr := decodeText(raw, fd.Charset)
		if serr != nil {
			return Value{}, serr
		}
		return StringValue(s), nil
	case TypeNull:
		return NullValue(), nil
	default:
		raw, ok, err := r.ConsumeLCS()
		if err != nil {
			return Value{}, err
		}
		if !ok {
			return NullValue(), nil
		}
		return RawValue(append([]byte(nil), raw...)), nil
	}
}
