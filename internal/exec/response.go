package exec

import (
	"bytes"
	"io"
	"strconv"

	nsdberrors "github.com/nsdb/nsdb/internal/errors"
)

// responseKind tags what a successful response's data buffer holds — spec
// §4.5's Response::Serialized{ty, size, data} wrapper.
type responseKind byte

const (
	respOK responseKind = iota
	respRow
	respMultiRow
)

// result is what a statement handler hands back to Run for framing onto the
// wire: either respOK with no payload (DDL, Use, Insert/Update/Delete), or a
// row/multi-row result carrying rowcount + the tag-framed encoded fields.
type result struct {
	kind responseKind
	size uint64
	data []byte
}

func okResult() result { return result{kind: respOK} }

// writeError frames a failed query: a one-byte failure marker followed by
// the one-byte numeric error code the client's error table maps (spec §6/§7).
func writeError(w io.Writer, code nsdberrors.Code) error {
	_, err := w.Write([]byte{1, byte(code)})
	return err
}

// writeResult frames a successful query: a one-byte success marker, the
// result kind, then decimal(size) LF decimal(len(data)) LF data — the same
// ascii-decimal-length framing the handshake and QT-DEX scanners use.
func writeResult(w io.Writer, r result) error {
	var buf bytes.Buffer
	buf.WriteByte(0)
	buf.WriteByte(byte(r.kind))
	buf.WriteString(strconv.FormatUint(r.size, 10))
	buf.WriteByte('\n')
	buf.WriteString(strconv.Itoa(len(r.data)))
	buf.WriteByte('\n')
	buf.Write(r.data)
	_, err := w.Write(buf.Bytes())
	return err
}
