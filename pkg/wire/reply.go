package wire

import (
	"bufio"
	"strconv"

	"github.com/foliodb/folio/pkg/model"
)

// ReplyKind discriminates the shape of a Reply.
type ReplyKind int

const (
	StatusReply ReplyKind = iota
	IntReply
	BulkReply
	ArrayReply
	ErrorReply
)

// Reply is a single parsed server reply. Only the field matching Kind
// is meaningful; BulkNull / ArrayNull distinguish an absent payload
// ("$-1" / "*-1") from an empty one.
type Reply struct {
	Kind      ReplyKind
	Status    string
	Int       int64
	Bulk      []byte
	BulkNull  bool
	Array     []Reply
	ArrayNull bool
	ErrMsg    string
}

// readReply parses exactly one reply frame from r.
func readReply(r *bufio.Reader) (Reply, error) {
	line, err := readLine(r)
	if err != nil {
		return Reply{}, err
	}
	if len(line) == 0 {
		return Reply{}, &model.ProtocolError{Detail: "empty reply line"}
	}
	switch line[0] {
	case '+':
		return Reply{Kind: StatusReply, Status: string(line[1:])}, nil
	case '-':
		return Reply{Kind: ErrorReply, ErrMsg: string(line[1:])}, nil
	case ':':
		n, err := strconv.ParseInt(string(line[1:]), 10, 64)
		if err != nil {
			return Reply{}, &model.ProtocolError{Detail: "malformed integer reply: " + err.Error()}
		}
		return Reply{Kind: IntReply, Int: n}, nil
	case '$':
		n, err := strconv.Atoi(string(line[1:]))
		if err != nil {
			return Reply{}, &model.ProtocolError{Detail: "malformed bulk length: " + err.Error()}
		}
		if n < 0 {
			return Reply{Kind: BulkReply, BulkNull: true}, nil
		}
		data, err := readBulk(r, n)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Kind: BulkReply, Bulk: data}, nil
	case '*':
		n, err := strconv.Atoi(string(line[1:]))
		if err != nil {
			return Reply{}, &model.ProtocolError{Detail: "malformed array length: " + err.Error()}
		}
		if n < 0 {
			return Reply{Kind: ArrayReply, ArrayNull: true}, nil
		}
		items := make([]Reply, n)
		for i := 0; i < n; i++ {
			item, err := readReply(r)
			if err != nil {
				return Reply{}, err
			}
			items[i] = item
		}
		return Reply{Kind: ArrayReply, Array: items}, nil
	default:
		return Reply{}, &model.ProtocolError{Detail: "unknown reply frame type " + string(line[0])}
	}
}

// readLine reads a single CRLF-terminated line, stripping the
// terminator. The terminator itself is not part of the payload.
func readLine(r *bufio.Reader) ([]byte, error) {
	line, err := r.ReadBytes('\n')
	if err != nil {
		return nil, &model.TransportError{Op: "read", Err: err}
	}
	n := len(line)
	if n >= 2 && line[n-2] == '\r' {
		return line[:n-2], nil
	}
	if n >= 1 && line[n-1] == '\n' {
		return line[:n-1], nil
	}
	return line, nil
}

// readBulk consumes exactly n payload bytes followed by the trailing
// CRLF frame separator, looping until the declared length is reached
// (a single Read may return a short buffer).
func readBulk(r *bufio.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	read := 0
	for read < n {
		m, err := r.Read(buf[read:])
		if err != nil {
			return nil, &model.TransportError{Op: "read-bulk", Err: err}
		}
		read += m
	}
	if _, err := readLine(r); err != nil {
		return nil, err
	}
	return buf, nil
}
