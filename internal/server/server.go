package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// connTimeout bounds each connection's whole exchange. Transfers are
// host-driven over a forwarded local socket; anything slower than this
// is a wedged peer, not a slow link.
const connTimeout = 5 * time.Minute

// Server is the local command-socket listener service.
type Server struct {
	name        string
	fallbackDir string
	filesDir    string
	executor    Executor
	logger      *zap.Logger
}

// Config holds server configuration.
type Config struct {
	// SocketName is the abstract socket name, without the leading NUL.
	SocketName string
	// FallbackDir hosts the filesystem socket when the abstract
	// namespace is unavailable.
	FallbackDir string
	// FilesDir is the agent's private directory; relative transfer
	// paths resolve against it.
	FilesDir string
	// Executor runs execute-command requests.
	Executor Executor
}

// New creates a command-socket server.
func New(cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		name:        cfg.SocketName,
		fallbackDir: cfg.FallbackDir,
		filesDir:    cfg.FilesDir,
		executor:    cfg.Executor,
		logger:      logger,
	}
}

// Name implements service.Service.
func (s *Server) Name() string { return "socket" }

// Run binds the socket and serves connections until the context is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	listener, addr, err := s.listen()
	if err != nil {
		return fmt.Errorf("bind command socket: %w", err)
	}
	s.logger.Info("command socket listening", zap.String("addr", addr))

	// Unblock Accept on shutdown.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Warn("accept failed", zap.Error(err))
			continue
		}

		go s.handleConn(ctx, conn)
	}
}

// listen binds the abstract socket first, then the filesystem
// fallback. The fallback path is unlinked before binding so a stale
// socket from a crashed agent does not block startup.
func (s *Server) listen() (net.Listener, string, error) {
	abstract := "@" + s.name
	if l, err := net.Listen("unix", abstract); err == nil {
		return l, abstract, nil
	}

	path := filepath.Join(s.fallbackDir, s.name)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, "", fmt.Errorf("remove stale socket: %w", err)
	}

	l, err := net.Listen("unix", path)
	if err != nil {
		return nil, "", err
	}
	return l, path, nil
}

// handleConn serves one command on one connection.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(connTimeout))

	cmd, err := readStatus(conn)
	if err != nil {
		s.logger.Debug("connection closed before command", zap.Error(err))
		return
	}

	switch cmd {
	case cmdDownload:
		s.handleDownload(conn)
	case cmdUpload:
		s.handleUpload(conn)
	case cmdExecute:
		s.handleExecute(ctx, conn)
	default:
		s.logger.Warn("unknown command byte", zap.Uint8("cmd", cmd))
		writeStatus(conn, respError)
	}
}

// resolvePath maps a wire file name to a device path. Absolute paths
// are honored as-is: the host owns the device under test and pulls
// files from anywhere on it. Relative names resolve inside the files
// directory and must not escape it.
func (s *Server) resolvePath(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty file name")
	}
	if filepath.IsAbs(name) {
		return filepath.Clean(name), nil
	}

	joined := filepath.Join(s.filesDir, name)
	if !filepath.IsLocal(name) {
		return "", fmt.Errorf("relative name escapes files dir: %s", name)
	}
	return joined, nil
}
