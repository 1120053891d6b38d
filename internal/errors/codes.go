// Package errors holds the single numeric error-code table the wire
// protocol exposes (spec §6/§7): every QueryError, RuntimeError, and
// HandshakeError/ParseError the server can produce maps to exactly one
// Code. Codes 0-6 are the fixed system codes; the rest are assigned
// densely by family in the order each error is introduced in spec §7:
// Lex (20s), QL (30s), Ddl (40s), Dml (50s), Storage/Txn (60s-70s),
// Handshake/Protocol (80s).
package errors

// Code is the one-byte value written into a query's error response frame.
type Code uint8

const (
	SysServerError                       Code = 0
	SysOutOfMemory                       Code = 1
	SysUnknownError                      Code = 2
	SysAuthError                         Code = 3
	SysTransactionalError                Code = 4
	SysPermissionDenied                  Code = 5
	SysNetworkSystemIllegalClientPacket  Code = 6

	LexInvalidInput   Code = 20
	LexUnexpectedByte Code = 21

	QLUnexpectedEndOfStatement Code = 30
	QLInvalidSyntax            Code = 31

	QExecDdlObjectAlreadyExists     Code = 40
	QExecDdlNotEmpty                Code = 41
	QExecDdlModelBadDefinition      Code = 42
	QExecDdlModelAlterIllegal       Code = 43
	QExecDdlInvalidTypeDefinition   Code = 44
	QExecDdlModelAlterBadTypedef    Code = 45

	QExecObjectNotFound             Code = 50
	QExecUnknownField               Code = 51
	QExecDmlDuplicate                Code = 52
	QExecDmlValidationError          Code = 53
	QExecDmlRowNotFound              Code = 54
	QExecDmlWhereHasUnindexedColumn  Code = 55
	QExecNeedLock                    Code = 56

	StorageFileHeaderVersionMismatch                Code = 60
	StorageFileHeaderCorrupted                      Code = 61
	StorageRawJournalDecodeInvalidEvent              Code = 62
	StorageRawJournalDecodeBatchIntegrityFailure     Code = 63
	StorageRawJournalDecodeCorruptionInBatchMetadata Code = 64
	StorageRawJournalRuntimeDirty                    Code = 65
	StorageRawJournalRuntimeHeartbeatFail            Code = 66

	TxnIoError     Code = 70
	TxnConfigError Code = 71
	TxnOtherError  Code = 72

	HandshakeErrorCode Code = 80
	ProtocolParseError Code = 81
)

var codeNames = map[Code]string{
	SysServerError:                      "SysServerError",
	SysOutOfMemory:                      "SysOutOfMemory",
	SysUnknownError:                     "SysUnknownError",
	SysAuthError:                        "SysAuthError",
	SysTransactionalError:               "SysTransactionalError",
	SysPermissionDenied:                 "SysPermissionDenied",
	SysNetworkSystemIllegalClientPacket: "SysNetworkSystemIllegalClientPacket",
	LexInvalidInput:                     "LexInvalidInput",
	LexUnexpectedByte:                   "LexUnexpectedByte",
	QLUnexpectedEndOfStatement:          "QLUnexpectedEndOfStatement",
	QLInvalidSyntax:                     "QLInvalidSyntax",
	QExecDdlObjectAlreadyExists:         "QExecDdlObjectAlreadyExists",
	QExecDdlNotEmpty:                    "QExecDdlNotEmpty",
	QExecDdlModelBadDefinition:          "QExecDdlModelBadDefinition",
	QExecDdlModelAlterIllegal:           "QExecDdlModelAlterIllegal",
	QExecDdlInvalidTypeDefinition:       "QExecDdlInvalidTypeDefinition",
	QExecDdlModelAlterBadTypedef:        "QExecDdlModelAlterBadTypedef",
	QExecObjectNotFound:                 "QExecObjectNotFound",
	QExecUnknownField:                   "QExecUnknownField",
	QExecDmlDuplicate:                   "QExecDmlDuplicate",
	QExecDmlValidationError:             "QExecDmlValidationError",
	QExecDmlRowNotFound:                 "QExecDmlRowNotFound",
	QExecDmlWhereHasUnindexedColumn:     "QExecDmlWhereHasUnindexedColumn",
	QExecNeedLock:                       "QExecNeedLock",
	StorageFileHeaderVersionMismatch:                "StorageFileHeaderVersionMismatch",
	StorageFileHeaderCorrupted:                      "StorageFileHeaderCorrupted",
	StorageRawJournalDecodeInvalidEvent:              "StorageRawJournalDecodeInvalidEvent",
	StorageRawJournalDecodeBatchIntegrityFailure:     "StorageRawJournalDecodeBatchIntegrityFailure",
	StorageRawJournalDecodeCorruptionInBatchMetadata: "StorageRawJournalDecodeCorruptionInBatchMetadata",
	StorageRawJournalRuntimeDirty:                    "StorageRawJournalRuntimeDirty",
	StorageRawJournalRuntimeHeartbeatFail:            "StorageRawJournalRuntimeHeartbeatFail",
	TxnIoError:         "TxnIoError",
	TxnConfigError:      "TxnConfigError",
	TxnOtherError:        "TxnOtherError",
	HandshakeErrorCode: "HandshakeError",
	ProtocolParseError: "ProtocolParseError",
}

func (c Code) String() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return "UnknownCode"
}
