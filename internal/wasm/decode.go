package wasm

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/skanehira/chibiwasm/internal/leb128"
)

func newBytesReader(b []byte) *bytes.Reader {
	return bytes.NewReader(b)
}

func readAll(r byteReader) ([]byte, error) {
	return io.ReadAll(r)
}

// byteReader is the minimal interface the decoder needs; bufio.Reader and
// bytes.Reader both satisfy it.
type byteReader interface {
	io.ByteReader
	io.Reader
}

func newByteReader(r io.Reader) byteReader {
	if br, ok := r.(byteReader); ok {
		return br
	}
	return bufio.NewReader(r)
}

func readVarUint32(r byteReader) (uint32, uint64, error) {
	return leb128.DecodeUint32(r)
}

func readVarUint64(r byteReader) (uint64, uint64, error) {
	return leb128.DecodeUint64(r)
}

func readVarInt32(r byteReader) (int32, uint64, error) {
	return leb128.DecodeInt32(r)
}

func readVarInt64(r byteReader) (int64, uint64, error) {
	return leb128.DecodeInt64(r)
}

func readBytes(r byteReader, n uint32) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("read %d bytes: %w", n, err)
	}
	return buf, nil
}

func readName(r byteReader) (string, error) {
	n, _, err := readVarUint32(r)
	if err != nil {
		return "", fmt.Errorf("read name length: %w", err)
	}
	b, err := readBytes(r, n)
	if err != nil {
		return "", fmt.Errorf("read name bytes: %w", err)
	}
	return string(b), nil
}
