package server

import (
	"bytes"
	"context"
	"net"
	"os"

	"go.uber.org/zap"
)

// handleDownload serves a file to the host.
//
// Exchange: accept byte, 256-byte name from peer, uint64 size (or a
// single refusal byte), ack from peer, chunked payload, final ack.
func (s *Server) handleDownload(conn net.Conn) {
	if err := writeStatus(conn, respOK); err != nil {
		return
	}

	name, err := readPadded(conn, sizeFilename)
	if err != nil {
		s.logger.Warn("download: bad filename frame", zap.Error(err))
		return
	}

	path, err := s.resolvePath(name)
	if err != nil {
		s.logger.Warn("download: rejected path", zap.String("name", name), zap.Error(err))
		writeStatus(conn, respNoExist)
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		s.logger.Debug("download: no such file", zap.String("path", path))
		writeStatus(conn, respNoExist)
		return
	}
	if !info.Mode().IsRegular() {
		writeStatus(conn, respNoRead)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		s.logger.Warn("download: unreadable file", zap.String("path", path), zap.Error(err))
		writeStatus(conn, respNoRead)
		return
	}
	defer f.Close()

	if err := writeUint64(conn, uint64(info.Size())); err != nil {
		return
	}

	if ack, err := readStatus(conn); err != nil || ack != respOK {
		s.logger.Debug("download: peer declined transfer", zap.String("path", path))
		return
	}

	if err := transferChunked(conn, f, uint64(info.Size())); err != nil {
		s.logger.Warn("download: transfer failed", zap.String("path", path), zap.Error(err))
		return
	}

	if ack, err := readStatus(conn); err != nil || ack != respOK {
		s.logger.Warn("download: peer reported failure", zap.String("path", path))
		return
	}

	s.logger.Info("download complete",
		zap.String("path", path),
		zap.Int64("bytes", info.Size()))
}

// handleUpload receives a file from the host.
//
// Exchange: accept byte, uint64 size from peer, ack, 256-byte name
// from peer, ack (or refusal byte), chunked payload, final ack.
func (s *Server) handleUpload(conn net.Conn) {
	if err := writeStatus(conn, respOK); err != nil {
		return
	}

	size, err := readUint64(conn)
	if err != nil {
		s.logger.Warn("upload: bad size frame", zap.Error(err))
		return
	}
	if err := writeStatus(conn, respOK); err != nil {
		return
	}

	name, err := readPadded(conn, sizeFilename)
	if err != nil {
		s.logger.Warn("upload: bad filename frame", zap.Error(err))
		return
	}

	path, err := s.resolvePath(name)
	if err != nil {
		s.logger.Warn("upload: rejected path", zap.String("name", name), zap.Error(err))
		writeStatus(conn, respNoWrite)
		return
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		s.logger.Warn("upload: cannot create file", zap.String("path", path), zap.Error(err))
		writeStatus(conn, respNoWrite)
		return
	}
	defer f.Close()

	if err := writeStatus(conn, respOK); err != nil {
		return
	}

	if err := transferChunked(f, conn, size); err != nil {
		s.logger.Warn("upload: transfer failed", zap.String("path", path), zap.Error(err))
		writeStatus(conn, respError)
		return
	}

	if err := f.Sync(); err != nil {
		s.logger.Warn("upload: sync failed", zap.String("path", path), zap.Error(err))
		writeStatus(conn, respError)
		return
	}

	if err := writeStatus(conn, respOK); err != nil {
		return
	}

	s.logger.Info("upload complete",
		zap.String("path", path),
		zap.Uint64("bytes", size))
}

// handleExecute runs a host command line through the executor.
//
// Exchange: accept byte, 512-byte command from peer, uint32 output
// size (or a single refusal byte), ack from peer, chunked output,
// final ack.
func (s *Server) handleExecute(ctx context.Context, conn net.Conn) {
	if err := writeStatus(conn, respOK); err != nil {
		return
	}

	cmdLine, err := readPadded(conn, sizeCmd)
	if err != nil {
		s.logger.Warn("execute: bad command frame", zap.Error(err))
		return
	}
	if cmdLine == "" {
		writeStatus(conn, respError)
		return
	}

	s.logger.Debug("execute request", zap.String("cmd", cmdLine))

	output, err := s.executor.Execute(ctx, cmdLine)
	if err != nil {
		s.logger.Warn("execute: command failed",
			zap.String("cmd", cmdLine),
			zap.Error(err))
		writeStatus(conn, respError)
		return
	}

	if err := writeUint32(conn, uint32(len(output))); err != nil {
		return
	}

	if ack, err := readStatus(conn); err != nil || ack != respOK {
		return
	}

	if len(output) > 0 {
		if err := transferChunked(conn, bytes.NewReader(output), uint64(len(output))); err != nil {
			s.logger.Warn("execute: output transfer failed", zap.Error(err))
			return
		}
		if ack, err := readStatus(conn); err != nil || ack != respOK {
			return
		}
	}

	s.logger.Info("execute complete",
		zap.String("cmd", cmdLine),
		zap.Int("output_bytes", len(output)))
}
