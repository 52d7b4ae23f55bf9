package mysqlnative

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// charsetEncodings maps the common MySQL collation ids a column's
// FieldDescription carries to the encoding.Encoding their text columns
// actually use on the wire, so non-UTF-8 text can be transcoded to UTF-8 Go
// strings on decode. Grounded on DaKeiser-vitess/go/mysql/constants.go,
// which wires golang.org/x/text the same way for the same reason.
//
// This list is not exhaustive — MySQL has on the order of 250 collation
// ids — it covers the charsets this pack's examples actually exercise.
// Anything absent is assumed to already be UTF-8 (or ASCII, a UTF-8 subset)
// and is passed through unmodified.
var charsetEncodings = map[uint16]encoding.Encoding{
	8:  charmap.ISO8859_1,     // latin1_swedish_ci
	28: simplifiedchinese.GBK, // gbk_chinese_ci
}

// isBinaryCharset reports whether charset is the pseudo-charset "binary"
// (collation id 63): per spec.md §4.C, TEXT/BLOB columns in this charset
// must decode as raw bytes, not as a string.
func isBinaryCharset(charset uint16) bool {
	return charset == charsetBinary
}

// decodeText transcodes b from the column's declared charset into a UTF-8
// Go string. Charsets this driver does not have a mapping for (the common
// case: utf8/utf8mb4/ascii) are assumed already UTF-8 and passed through
// without copying through a decoder.
func decodeText(b []byte, charset uint16) (string, error) {
	enc, ok := charsetEncodings[charset]
	if !ok {
		return string(b), nil
	}
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
