package mysqlnative

import (
	"log"
	"os"
)

// errLog is the package-level logger the teacher (go-sql-driver-mysql)
// keeps for the narrow class of errors it cannot return to a caller: an
// unexpected kill() (connection.go's kill) and a cleanup-time failure with
// nowhere left to surface, such as COM_STMT_CLOSE failing after the
// statement handle has already been released (statement.go's Close).
// Replaceable via SetLogger for tests and embedders.
var errLog = log.New(os.Stderr, "[mysqlnative] ", log.Ldate|log.Ltime|log.Lshortfile)

// SetLogger replaces the package-level logger.
func SetLogger(l *log.Logger) {
	errLog = l
}
