package server

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Command bytes, one per connection.
const (
	cmdDownload = 'd'
	cmdUpload   = 'u'
	cmdExecute  = 'e'
)

// Status bytes.
const (
	respOK      = 0x00
	respError   = 0x01
	respNoExist = 0xFF
	respNoRead  = 0xFE
	respExists  = 0xFD // reserved, kept for protocol compatibility
	respNoWrite = 0xFC
)

// Frame sizes.
const (
	sizeFilename = 256
	sizeCmd      = 512
	sizeTransfer = 1024
)

// writeStatus sends a single status byte.
func writeStatus(w io.Writer, status byte) error {
	_, err := w.Write([]byte{status})
	return err
}

// readStatus reads a single status byte.
func readStatus(r io.Reader) (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// readPadded reads an n-byte NUL-padded string frame.
func readPadded(r io.Reader, n int) (string, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}

	if idx := bytes.IndexByte(buf, 0); idx >= 0 {
		buf = buf[:idx]
	}
	return string(buf), nil
}

// writePadded writes s as an n-byte NUL-padded frame.
func writePadded(w io.Writer, s string, n int) error {
	if len(s) > n {
		return fmt.Errorf("frame overflow: %d > %d", len(s), n)
	}

	buf := make([]byte, n)
	copy(buf, s)
	_, err := w.Write(buf)
	return err
}

// writeUint64 sends a big-endian uint64.
func writeUint64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// readUint64 reads a big-endian uint64.
func readUint64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

// writeUint32 sends a big-endian uint32.
func writeUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// readUint32 reads a big-endian uint32.
func readUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

// transferChunked moves exactly size bytes from r to w in
// transfer-sized chunks. Both directions of the protocol use the same
// framing, so this serves download, upload, and execute output alike.
func transferChunked(w io.Writer, r io.Reader, size uint64) error {
	buf := make([]byte, sizeTransfer)
	remaining := size

	for remaining > 0 {
		n := uint64(sizeTransfer)
		if remaining < n {
			n = remaining
		}

		if _, err := io.ReadFull(r, buf[:n]); err != nil {
			return fmt.Errorf("read chunk: %w", err)
		}
		if _, err := w.Write(buf[:n]); err != nil {
			return fmt.Errorf("write chunk: %w", err)
		}

		remaining -= n
	}

	return nil
}
