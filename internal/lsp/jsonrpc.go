package lsp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// maxMessageSize bounds a single payload; a larger Content-Length is
// treated as a broken stream.
const maxMessageSize = 64 << 20

var errMissingContentLength = errors.New("missing Content-Length header")

// readMessage reads one Content-Length framed payload.
func readMessage(r *bufio.Reader) ([]byte, error) {
	n, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// readHeader consumes the header block up to the empty line and returns
// the payload length. Headers other than Content-Length are skipped.
func readHeader(r *bufio.Reader) (int, error) {
	n := -1
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return 0, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			continue
		}
		if n, err = parseContentLength(value); err != nil {
			return 0, err
		}
	}
	if n < 0 {
		return 0, errMissingContentLength
	}
	return n, nil
}

func parseContentLength(value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid Content-Length: %w", err)
	}
	if n < 0 || n > maxMessageSize {
		return 0, fmt.Errorf("invalid Content-Length %d", n)
	}
	return n, nil
}

// writeMessage frames payload and hands it to w in one Write call.
func writeMessage(w io.Writer, payload []byte) error {
	header := "Content-Length: " + strconv.Itoa(len(payload)) + "\r\n\r\n"
	frame := make([]byte, 0, len(header)+len(payload))
	frame = append(append(frame, header...), payload...)
	_, err := w.Write(frame)
	return err
}
