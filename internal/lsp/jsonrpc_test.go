package lsp

import (
	"bufio"
	"bytes"
	"errors"
	"strconv"
	"strings"
	"testing"
)

func TestJSONRPCFramingMultipleMessages(t *testing.T) {
	var buf bytes.Buffer
	msg1 := []byte(`{"jsonrpc":"2.0","method":"one"}`)
	msg2 := []byte(`{"jsonrpc":"2.0","method":"two"}`)

	if err := writeMessage(&buf, msg1); err != nil {
		t.Fatalf("write message 1: %v", err)
	}
	if err := writeMessage(&buf, msg2); err != nil {
		t.Fatalf("write message 2: %v", err)
	}

	reader := bufio.NewReader(bytes.NewReader(buf.Bytes()))
	got1, err := readMessage(reader)
	if err != nil {
		t.Fatalf("read message 1: %v", err)
	}
	got2, err := readMessage(reader)
	if err != nil {
		t.Fatalf("read message 2: %v", err)
	}

	if string(got1) != string(msg1) {
		t.Fatalf("unexpected message 1: %s", string(got1))
	}
	if string(got2) != string(msg2) {
		t.Fatalf("unexpected message 2: %s", string(got2))
	}
}

func TestJSONRPCHeaders(t *testing.T) {
	in := "Content-Type: application/vscode-jsonrpc; charset=utf-8\r\ncontent-length: 2\r\n\r\n{}"
	got, err := readMessage(bufio.NewReader(strings.NewReader(in)))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "{}" {
		t.Fatalf("unexpected payload %q", got)
	}

	_, err = readMessage(bufio.NewReader(strings.NewReader("X-Other: 1\r\n\r\n{}")))
	if !errors.Is(err, errMissingContentLength) {
		t.Fatalf("expected missing Content-Length, got %v", err)
	}
	if _, err := readMessage(bufio.NewReader(strings.NewReader("Content-Length: -4\r\n\r\n"))); err == nil {
		t.Fatal("expected an error for a negative length")
	}
}

type countingWriter struct {
	bytes.Buffer
	writes int
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.writes++
	return w.Buffer.Write(p)
}

func TestWriteMessageIsOneWrite(t *testing.T) {
	var w countingWriter
	if err := writeMessage(&w, []byte(`{"id":1}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if w.writes != 1 {
		t.Fatalf("expected a single write, got %d", w.writes)
	}
	if got := w.String(); got != "Content-Length: 8\r\n\r\n{\"id\":1}" {
		t.Fatalf("unexpected frame %q", got)
	}
}

func TestJSONRPCOversizedMessage(t *testing.T) {
	in := "Content-Length: " + strconv.Itoa(maxMessageSize+1) + "\r\n\r\n"
	if _, err := readMessage(bufio.NewReader(strings.NewReader(in))); err == nil {
		t.Fatal("expected an error for an oversized message")
	}
}
