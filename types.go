package mysqlnative

// SQLType is the wire column type code (one byte), generalized from the
// teacher's fieldType enum (go-sql-driver-mysql/fields.go) to the subset
// spec.md §4.C names.
type SQLType uint8

const (
	TypeDecimal    SQLType = 0x00
	TypeTiny       SQLType = 0x01
	TypeShort      SQLType = 0x02
	TypeLong       SQLType = 0x03
	TypeFloat      SQLType = 0x04
	TypeDouble     SQLType = 0x05
	TypeNull       SQLType = 0x06
	TypeTimestamp  SQLType = 0x07
	TypeLongLong   SQLType = 0x08
	TypeInt24      SQLType = 0x09
	TypeDate       SQLType = 0x0a
	TypeTime       SQLType = 0x0b
	TypeDateTime   SQLType = 0x0c
	TypeYear       SQLType = 0x0d
	TypeNewDate    SQLType = 0x0e
	TypeVarChar    SQLType = 0x0f
	TypeBit        SQLType = 0x10
	TypeNewDecimal SQLType = 0xf6
	TypeEnum       SQLType = 0xf7
	TypeSet        SQLType = 0xf8
	TypeTinyBlob   SQLType = 0xf9
	TypeMediumBlob SQLType = 0xfa
	TypeLongBlob   SQLType = 0xfb
	TypeBlob       SQLType = 0xfc
	TypeVarString  SQLType = 0xfd
	TypeString     SQLType = 0xfe
	TypeGeometry   SQLType = 0xff
)

func (t SQLType) String() string {
	switch t {
	case TypeDecimal:
		return "DECIMAL"
	case TypeTiny:
		return "TINY"
	case TypeShort:
		return "SHORT"
	case TypeLong:
		return "LONG"
	case TypeFloat:
		return "FLOAT"
	case TypeDouble:
		return "DOUBLE"
	case TypeNull:
		return "NULL"
	case TypeTimestamp:
		return "TIMESTAMP"
	case TypeLongLong:
		return "LONGLONG"
	case TypeInt24:
		return "INT24"
	case TypeDate:
		return "DATE"
	case TypeTime:
		return "TIME"
	case TypeDateTime:
		return "DATETIME"
	case TypeYear:
		return "YEAR"
	case TypeNewDate:
		return "NEWDATE"
	case TypeVarChar:
		return "VARCHAR"
	case TypeBit:
		return "BIT"
	case TypeNewDecimal:
		return "NEWDECIMAL"
	case TypeEnum:
		return "ENUM"
	case TypeSet:
		return "SET"
	case TypeTinyBlob:
		return "TINYBLOB"
	case TypeMediumBlob:
		return "MEDIUMBLOB"
	case TypeLongBlob:
		return "LONGBLOB"
	case TypeBlob:
		return "BLOB"
	case TypeVarString:
		return "VARSTRING"
	case TypeString:
		return "STRING"
	case TypeGeometry:
		return "GEOMETRY"
	default:
		return "UNKNOWN"
	}
}

// FieldFlag is the per-column flag bitset from a FieldDescription packet.
type FieldFlag uint16

const (
	FlagNotNull FieldFlag = 1 << iota
	FlagPriKey
	FlagUniqueKey
	FlagMultipleKey
	FlagBlob
	FlagUnsigned
	FlagZeroFill
	FlagBinary
	FlagEnum
	FlagAutoIncrement
	FlagTimestamp
	FlagSet
)

// charsetBinary is the MySQL collation id for the pseudo-charset "binary".
// Text/blob columns declared with this charset carry binary bytes rather
// than text, per spec.md §4.C.
const charsetBinary = 63

// Capability is the 32-bit client/server capability-flag bitset negotiated
// at handshake, per spec.md §4.C. Bit positions follow
// DaKeiser-vitess/go/mysql/constants.go's CLIENT_* assignments. Every bit
// up to CLIENT_DEPRECATE_EOF is declared so the positions stay aligned;
// several carry a comment noting why this driver never requests them.
type Capability uint32

const (
	CapLongPassword Capability = 1 << iota
	CapFoundRows
	CapLongFlag
	CapConnectWithDB
	capNoSchema // CLIENT_NO_SCHEMA, never requested: we permit db.table.column
	capCompress // CLIENT_COMPRESS — Non-goal, never requested
	capODBC
	capLocalFiles // CLIENT_LOCAL_FILES — LOAD DATA LOCAL is a Non-goal
	capIgnoreSpace
	CapProtocol41
	capInteractive
	CapSSL // CLIENT_SSL — TLS upgrade is a Non-goal, never requested
	capIgnoreSigpipe
	CapTransactions
	capReserved
	CapSecureConnection
	CapMultiStatements  // negotiated off: Non-goal
	CapMultiResults     // negotiated off: Non-goal
	CapPSMultiResults   // negotiated off: Non-goal
	CapPluginAuth       // not used: single fixed auth method
	CapConnectAttrs     // not sent
	CapPluginAuthLenEncClientData
	capCanHandleExpiredPasswords
	capSessionTrack
	CapDeprecateEOF // negotiated off: the core relies on EOF-terminated sequences
)

// requiredCapabilities are the bits spec.md §3 says the client REQUIRES from
// the server; absence is a handshake failure.
const requiredCapabilities = CapProtocol41 | CapSecureConnection

// baseRequestedCapabilities are the bits this driver advertises in its login
// packet, per spec.md §4.C: "OLD_LONG_PASSWORD, ALL_COLUMN_FLAGS, WITH_DB"
// plus the two required bits, which are forced on regardless of what the
// server offers.
const baseRequestedCapabilities = CapLongPassword | CapLongFlag | CapConnectWithDB |
	CapProtocol41 | CapSecureConnection

// negotiateCapabilities computes client_caps = (server_caps & requested)
// with PROTOCOL_41 and SECURE_CONNECTION forced on, per spec.md §4.C. A
// server bit this driver never requests (e.g. capCompress, CapSSL) is
// masked out regardless of whether the server offers it.
func negotiateCapabilities(serverCaps, requested Capability) Capability {
	return (serverCaps & requested) | requiredCapabilities
}

// commandType is the one-byte COM_* command code.
type commandType byte

const (
	comQuit        commandType = 0x01
	comInitDB      commandType = 0x02
	comQuery       commandType = 0x03
	comPing        commandType = 0x0e
	comRefresh     commandType = 0x07
	comStatistics  commandType = 0x09
	comStmtPrepare commandType = 0x16
	comStmtExecute commandType = 0x17
	comStmtSendLongData commandType = 0x18
	comStmtClose   commandType = 0x19
	comSetOption   commandType = 0x1b
)

const (
	minProtocolVersion = 10
	maxPacketSize       = 1<<24 - 1
)
