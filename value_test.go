package mysqlnative

import "testing"

func TestValueZeroIsNull(t *testing.T) {
	var v Value
	if !v.IsNull() {
		t.Fatal("zero Value must be null")
	}
	if v.Kind() != KindNull {
		t.Fatalf("zero Value has kind %v", v.Kind())
	}
}

func TestValueAccessorsRejectWrongKind(t *testing.T) {
	v := Int64Value(7)
	if _, ok := v.Float64(); ok {
		t.Fatal("Float64 must refuse a KindI64 value")
	}
	if got, ok := v.Int64(); !ok || got != 7 {
		t.Fatalf("got %d, %v", got, ok)
	}
}

func TestValueStringStringifiesEveryKind(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{NullValue(), "<nil>"},
		{StringValue("hi"), "hi"},
		{DateValue(Date{Year: 2024, Month: 1, Day: 2}), "2024-01-02"},
		{TimeValue(ClockTime{Hour: 5, Minute: 6, Second: 7}), "05:06:07"},
		{DateTimeValue(DateTime{Date: Date{Year: 2024, Month: 1, Day: 2}, Hour: 3}), "2024-01-02 03:00:00"},
	}
	for _, c := range cases {
		if got := c.v.String(); got != c.want {
			t.Fatalf("got %q, want %q", got, c.want)
		}
	}
}

func TestClockTimeStringFoldsDays(t *testing.T) {
	ct := ClockTime{Negative: true, Days: 2, Hour: 3, Minute: 4, Second: 5}
	if got, want := ct.String(), "-51:04:05"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestBinaryDateRoundTrip(t *testing.T) {
	d := Date{Year: 2023, Month: 12, Day: 31}
	buf := appendBinaryDate(nil, d)
	r := NewReader(buf)
	length, err := r.ConsumeU8()
	if err != nil {
		t.Fatal(err)
	}
	raw, err := r.ConsumeFixed(int(length))
	if err != nil {
		t.Fatal(err)
	}
	got, err := decodeBinaryDate(raw)
	if err != nil {
		t.Fatal(err)
	}
	if got != d {
		t.Fatalf("got %+v, want %+v", got, d)
	}
}

func TestBinaryDateTimeRoundTripShrinksZeroTime(t *testing.T) {
	dt := DateTime{Date: Date{Year: 2023, Month: 1, Day: 1}}
	buf := appendBinaryDateTime(nil, dt)
	if buf[0] != 4 {
		t.Fatalf("expected a 4-byte body for a zero time-of-day, got length byte %d", buf[0])
	}
	r := NewReader(buf)
	length, _ := r.ConsumeU8()
	raw, err := r.ConsumeFixed(int(length))
	if err != nil {
		t.Fatal(err)
	}
	got, err := decodeBinaryDateTime(raw)
	if err != nil {
		t.Fatal(err)
	}
	if got != dt {
		t.Fatalf("got %+v, want %+v", got, dt)
	}
}

func TestBinaryTimeRoundTrip(t *testing.T) {
	tm := ClockTime{Negative: true, Days: 1, Hour: 2, Minute: 3, Second: 4}
	buf := appendBinaryTime(nil, tm)
	r := NewReader(buf)
	length, _ := r.ConsumeU8()
	raw, err := r.ConsumeFixed(int(length))
	if err != nil {
		t.Fatal(err)
	}
	got, err := decodeBinaryTime(raw)
	if err != nil {
		t.Fatal(err)
	}
	if got != tm {
		t.Fatalf("got %+v, want %+v", got, tm)
	}
}

func TestBinaryZeroValuesEncodeAsEmptyBody(t *testing.T) {
	if buf := appendBinaryDate(nil, Date{}); len(buf) != 1 || buf[0] != 0 {
		t.Fatalf("expected a single zero length byte, got %v", buf)
	}
	if buf := appendBinaryTime(nil, ClockTime{}); len(buf) != 1 || buf[0] != 0 {
		t.Fatalf("expected a single zero length byte, got %v", buf)
	}
}
