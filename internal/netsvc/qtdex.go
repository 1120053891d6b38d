package netsvc

import (
	"bytes"
	"fmt"
	"strconv"
)

// qtdexSignature is the fixed 4-byte packet signature every query-time
// exchange frame starts with.
var qtdexSignature = [4]byte{'N', 'S', 'Q', '1'}

// QTState names the resumable states of one query-time exchange.
type QTState int

const (
	QTInitial QTState = iota
	QTSQ2Meta2Partial
	QTSQ3FinalizeWaitingForBlock
	QTCompleted
)

// Query is one fully-scanned query-time frame: the query text plus any
// trailing bound-parameter payload bytes.
type Query struct {
	Kind   byte
	Text   string
	Params []byte
}

// QTError is the typed error family for malformed query-time frames.
type QTError struct{ Reason string }

func (e *QTError) Error() string { return fmt.Sprintf("netsvc: query-time exchange error: %s", e.Reason) }

// QTScanner incrementally parses one Query from a connection's byte stream.
// A scanner is single-use: after QTCompleted the caller constructs a fresh
// one for the next request (requests are strictly serialized per
// connection, per spec §5).
type QTScanner struct {
	buf   []byte
	state QTState

	packetSize int
	qWindow    int
	kind       byte
	queryText  string
}

func NewQTScanner() *QTScanner { return &QTScanner{state: QTInitial} }

func (s *QTScanner) State() QTState { return s.state }

// Feed appends newly read bytes and advances as far as possible, returning
// (query, true, nil) once the frame is fully scanned, (zero, false, nil)
// when more bytes are needed, or (zero, true, err) on malformed input.
func (s *QTScanner) Feed(chunk []byte) (Query, bool, error) {
	s.buf = append(s.buf, chunk...)

	for {
		switch s.state {
		case QTInitial:
			if len(s.buf) < 4 {
				return Query{}, false, nil
			}
			if !bytes.Equal(s.buf[:4], qtdexSignature[:]) {
				return Query{}, true, &QTError{Reason: "bad packet signature"}
			}
			if len(s.buf) < 5 {
				return Query{}, false, nil
			}
			s.kind = s.buf[4]
			s.buf = s.buf[5:]
			s.state = QTSQ2Meta2Partial

		case QTSQ2Meta2Partial:
			n, rest, ok, err := readLenLine(s.buf)
			if err != nil {
				return Query{}, true, &QTError{Reason: err.Error()}
			}
			if !ok {
				return Query{}, false, nil
			}

			w, rest2, ok, err := readLenLine(rest)
			if err != nil {
				return Query{}, true, &QTError{Reason: err.Error()}
			}
			if !ok {
				return Query{}, false, nil
			}
			s.packetSize = n
			s.qWindow = w
			s.buf = rest2
			s.state = QTSQ3FinalizeWaitingForBlock

		case QTSQ3FinalizeWaitingForBlock:
			remaining := s.packetSize - s.qWindow
			if remaining < 0 {
				return Query{}, true, &QTError{Reason: "query window exceeds packet size"}
			}
			if len(s.buf) < s.qWindow+remaining {
				return Query{}, false, nil
			}
			s.queryText = string(s.buf[:s.qWindow])
			params := append([]byte{}, s.buf[s.qWindow:s.qWindow+remaining]...)
			s.buf = s.buf[s.qWindow+remaining:]
			s.state = QTCompleted

			return Query{Kind: s.kind, Text: s.queryText, Params: params}, true, nil

		default:
			return Query{}, true, &QTError{Reason: "scanner reused after completion"}
		}
	}
}

// EncodeQueryFrame builds a wire frame for a query (used by tests and by
// any in-process client helper): signature, kind, packet_size LF, q_window
// LF, query text, then params.
func EncodeQueryFrame(kind byte, text string, params []byte) []byte {
	var buf bytes.Buffer
	buf.Write(qtdexSignature[:])
	buf.WriteByte(kind)
	packetSize := len(text) + len(params)
	buf.WriteString(strconv.Itoa(packetSize))
	buf.WriteByte('\n')
	buf.WriteString(strconv.Itoa(len(text)))
	buf.WriteByte('\n')
	buf.WriteString(text)
	buf.Write(params)
	return buf.Bytes()
}
