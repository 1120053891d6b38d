package exec

import (
	"bytes"
	"strconv"

	"github.com/nsdb/nsdb/internal/value"
)

// encodeStringListResult frames a flat list of names (INSPECT SPACES/SPACE/
// MODEL) the same way a multi-row result frames data rows: decimal count,
// LF, then each entry as a decimal-length-prefixed string.
func encodeStringListResult(items []string) result {
	var buf bytes.Buffer
	buf.WriteString(strconv.Itoa(len(items)))
	buf.WriteByte('\n')
	for _, it := range items {
		buf.WriteString(strconv.Itoa(len(it)))
		buf.WriteByte('\n')
		buf.WriteString(it)
	}
	return result{kind: respMultiRow, size: uint64(len(items)), data: buf.Bytes()}
}

// encodeFieldSet writes one row's columns in name order: a decimal column
// count, then for each column a decimal-length-prefixed name followed by
// its value.Encode-framed cell.
func encodeFieldSet(buf *bytes.Buffer, names []string, fields map[string]value.Datacell) {
	buf.WriteString(strconv.Itoa(len(names)))
	buf.WriteByte('\n')
	for _, n := range names {
		buf.WriteString(strconv.Itoa(len(n)))
		buf.WriteByte('\n')
		buf.WriteString(n)
		value.Encode(buf, fields[n])
	}
}

// encodeRowResult frames a single-row SELECT result.
func encodeRowResult(names []string, fields map[string]value.Datacell) result {
	var buf bytes.Buffer
	encodeFieldSet(&buf, names, fields)
	return result{kind: respRow, size: 1, data: buf.Bytes()}
}

// encodeMultiRowResult frames a SELECT ALL result: decimal row count, then
// each row's encodeFieldSet output back to back.
func encodeMultiRowResult(names []string, rows []map[string]value.Datacell) result {
	var buf bytes.Buffer
	buf.WriteString(strconv.Itoa(len(rows)))
	buf.WriteByte('\n')
	for _, fields := range rows {
		encodeFieldSet(&buf, names, fields)
	}
	return result{kind: respMultiRow, size: uint64(len(rows)), data: buf.Bytes()}
}
