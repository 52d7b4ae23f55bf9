package mysqlnative

import "testing"

func TestReaderConsumeFixed(t *testing.T) {
	r := NewReader([]byte{1, 2, 3, 4})
	b, err := r.ConsumeFixed(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != 2 || b[0] != 1 || b[1] != 2 {
		t.Fatalf("unexpected bytes: %v", b)
	}
	if r.Len() != 2 {
		t.Fatalf("expected 2 bytes remaining, got %d", r.Len())
	}
}

func TestReaderShortBufferLeavesCursor(t *testing.T) {
	r := NewReader([]byte{1, 2})
	if _, err := r.ConsumeFixed(5); !IsShortBuffer(err) {
		t.Fatalf("expected short buffer error, got %v", err)
	}
	if r.Len() != 2 {
		t.Fatalf("cursor must not advance on a failed consume, got Len()=%d", r.Len())
	}

	r.Append([]byte{3, 4, 5})
	b, err := r.ConsumeFixed(5)
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != 5 {
		t.Fatalf("expected 5 bytes after retry, got %d", len(b))
	}
}

func TestConsumeNulTerminated(t *testing.T) {
	r := NewReader([]byte("hello\x00world"))
	s, err := r.ConsumeNulTerminated()
	if err != nil {
		t.Fatal(err)
	}
	if string(s) != "hello" {
		t.Fatalf("expected %q, got %q", "hello", s)
	}
	if string(r.Rest()) != "world" {
		t.Fatalf("expected remainder %q, got %q", "world", r.Rest())
	}
}

func TestConsumeLCBRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 250, 251, 0xffff, 0x10000, 0xffffff, 0x1000000, 1 << 40}
	for _, n := range cases {
		buf := appendLCB(nil, n)
		r := NewReader(buf)
		got, ok, err := r.ConsumeLCB()
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		if !ok {
			t.Fatalf("n=%d: unexpectedly null", n)
		}
		if got != n {
			t.Fatalf("n=%d: got %d", n, got)
		}
		if r.Len() != 0 {
			t.Fatalf("n=%d: %d trailing bytes", n, r.Len())
		}
	}
}

func TestConsumeLCBNull(t *testing.T) {
	r := NewReader([]byte{0xfb})
	_, ok, err := r.ConsumeLCB()
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected ok=false for the null marker")
	}
}

func TestConsumeLCBReservedByte(t *testing.T) {
	r := NewReader([]byte{0xff})
	_, _, err := r.ConsumeLCB()
	if err == nil {
		t.Fatal("expected an error for the reserved 0xff prefix")
	}
}

func TestConsumeLCSRoundTrip(t *testing.T) {
	want := []byte("the quick brown fox")
	buf := appendLCS(nil, want)
	r := NewReader(buf)
	got, ok, err := r.ConsumeLCS()
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("unexpectedly null")
	}
	if string(got) != string(want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestConsumeLCSShortBufferRollsBackWhole(t *testing.T) {
	full := appendLCS(nil, []byte("abcdef"))
	// Truncate mid-body: the length prefix parses fine but the body is short.
	short := full[:len(full)-2]
	r := NewReader(short)
	start := r.Len()
	if _, _, err := r.ConsumeLCS(); !IsShortBuffer(err) {
		t.Fatalf("expected short buffer error, got %v", err)
	}
	if r.Len() != start {
		t.Fatalf("cursor must roll back to the start of the LCS on a short body, got Len()=%d want %d", r.Len(), start)
	}
}

func TestLCBLenMatchesAppendLCB(t *testing.T) {
	cases := []uint64{0, 250, 251, 0xffff, 0x10000, 0xffffff, 0x1000000}
	for _, n := range cases {
		if got, want := lcbLen(n), len(appendLCB(nil, n)); got != want {
			t.Fatalf("n=%d: lcbLen()=%d, appendLCB length=%d", n, got, want)
		}
	}
}

func TestFloatBitsRoundTrip(t *testing.T) {
	if got := bitsFloat32(float32Bits(3.5)); got != 3.5 {
		t.Fatalf("got %v", got)
	}
	if got := bitsFloat64(float64Bits(-2.25)); got != -2.25 {
		t.Fatalf("got %v", got)
	}
}
