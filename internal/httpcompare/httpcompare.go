// Package httpcompare reconstructs an HTTP/1.1 response from a stream of
// captured segments and compares it against another reconstructed response
// for replay verification, the way http_response_processor.cc folds
// streamed bytes into headers plus a content-length or chunked body.
package httpcompare

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/valyala/bytebufferpool"
)

// bodyReader accumulates an HTTP response body according to its declared
// transfer encoding and reports when the full body has been read.
type bodyReader interface {
	process(data []byte) (complete bool, err error)
	payload() []byte
	isComplete() bool
}

// ResponseState incrementally parses one HTTP response out of a sequence of
// RECV action payloads. Use NewResponseState, feed every RECV payload in
// order through Process, and call Compare once both sides report Complete.
type ResponseState struct {
	headerBuf  *bytebufferpool.ByteBuffer
	headerDone bool

	statusCode int
	headers    map[string]string

	body bodyReader
}

// NewResponseState returns a fresh response parser.
func NewResponseState() *ResponseState {
	return &ResponseState{
		headerBuf:  bytebufferpool.Get(),
		statusCode: -1,
	}
}

// Release returns the header accumulation buffer to the pool. Call once the
// state is no longer needed.
func (s *ResponseState) Release() {
	if s.headerBuf != nil {
		bytebufferpool.Put(s.headerBuf)
		s.headerBuf = nil
	}
}

// Complete reports whether the status line, headers, and full body have
// all been consumed.
func (s *ResponseState) Complete() bool {
	return s.statusCode != -1 && s.body != nil && s.body.isComplete()
}

// StatusCode returns the parsed status code, or -1 if headers are not yet
// fully parsed.
func (s *ResponseState) StatusCode() int { return s.statusCode }

// Process folds one more chunk of response bytes into the parser. It
// returns true once the entire response (headers and body) is complete.
func (s *ResponseState) Process(data []byte) (bool, error) {
	if s.statusCode == -1 {
		origLen := s.headerBuf.Len()
		if _, err := s.headerBuf.Write(data); err != nil {
			return false, err
		}

		if origLen+len(data) > 3 {
			findStart := origLen - 3
			if findStart < 0 {
				findStart = 0
			}

			raw := s.headerBuf.B
			pos := bytes.Index(raw[findStart:], []byte("\r\n\r\n"))
			if pos >= 0 {
				pos += findStart

				if err := s.parseHeader(string(raw[:pos])); err != nil {
					return false, err
				}

				if err := s.selectBodyReader(); err != nil {
					return false, err
				}

				var leftover []byte
				if len(raw) > pos+4 {
					leftover = append([]byte(nil), raw[pos+4:]...)
				}
				s.headerBuf.Reset()
				s.headerDone = true

				if len(leftover) > 0 {
					return s.body.process(leftover)
				}
				return s.body.isComplete(), nil
			}
		}
		return false, nil
	}

	return s.body.process(data)
}

func (s *ResponseState) selectBodyReader() error {
	if cl, ok := s.headers["content-length"]; ok {
		n, err := strconv.Atoi(cl)
		if err != nil {
			return fmt.Errorf("invalid content-length %q", cl)
		}
		s.body = newContentLengthReader(n)
		return nil
	}
	if te, ok := s.headers["transfer-encoding"]; ok && strings.EqualFold(strings.TrimSpace(te), "chunked") {
		s.body = newChunkedReader()
		return nil
	}
	return fmt.Errorf("unsupported HTTP encoding")
}

// parseHeader parses the status line and header block (everything before
// the blank line terminator, which is not included in headerStr).
func (s *ResponseState) parseHeader(headerStr string) error {
	lines := strings.Split(headerStr, "\n")
	if len(lines) == 0 {
		return fmt.Errorf("empty HTTP response header")
	}

	statusFields := strings.SplitN(strings.TrimRight(lines[0], "\r"), " ", 3)
	if len(statusFields) < 2 {
		return fmt.Errorf("malformed status line %q", lines[0])
	}
	code, err := strconv.Atoi(statusFields[1])
	if err != nil {
		return fmt.Errorf("invalid status code %q", statusFields[1])
	}
	s.statusCode = code

	s.headers = make(map[string]string)
	for _, line := range lines[1:] {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		s.headers[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}
	return nil
}

// Compare orders this response against other: status code first, then
// body bytes. Both responses must be Complete; a mismatched transfer
// encoding between the two is an error, not an ordering.
func (s *ResponseState) Compare(other *ResponseState) (int, error) {
	if !s.Complete() || !other.Complete() {
		return 0, fmt.Errorf("internal failure: invalid state for response comparison")
	}

	if diff := s.statusCode - other.statusCode; diff != 0 {
		return diff, nil
	}

	switch a := s.body.(type) {
	case *contentLengthReader:
		b, ok := other.body.(*contentLengthReader)
		if !ok {
			return 0, fmt.Errorf("response used different transfer encoding")
		}
		return bytes.Compare(a.payload(), b.payload()), nil
	case *chunkedReader:
		b, ok := other.body.(*chunkedReader)
		if !ok {
			return 0, fmt.Errorf("response used different transfer encoding")
		}
		return bytes.Compare(a.payload(), b.payload()), nil
	default:
		return 0, fmt.Errorf("internal failure: unknown body reader type")
	}
}
