package mysqlnative

import "crypto/sha1"

// scrambleNativePassword computes the mysql_native_password authentication
// token per spec.md §4.H:
//
//	token = SHA1(password) XOR SHA1(challenge || SHA1(SHA1(password)))
//
// An empty password yields a nil token, telling the caller to send a
// zero-length token (omit the token length byte as 0). Grounded on
// go-sql-driver-mysql/utils.go's scramblePassword, which the teacher's own
// newer auth_mysql_native.go (NativePasswordPlugin.scramblePassword)
// reimplements identically.
func scrambleNativePassword(challenge []byte, password string) []byte {
	if len(password) == 0 {
		return nil
	}

	// stage1 = SHA1(password)
	h := sha1.New()
	h.Write([]byte(password))
	stage1 := h.Sum(nil)

	// stage2 = SHA1(stage1)
	h.Reset()
	h.Write(stage1)
	stage2 := h.Sum(nil)

	// scramble = SHA1(challenge || stage2)
	h.Reset()
	h.Write(challenge)
	h.Write(stage2)
	scramble := h.Sum(nil)

	// token = scramble XOR stage1
	token := make([]byte, len(scramble))
	for i := range token {
		token[i] = scramble[i] ^ stage1[i]
	}
	return token
}
