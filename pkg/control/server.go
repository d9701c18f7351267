package control

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"strconv"

	"github.com/zachwinter/valve/pkg/logging"
	"github.com/zachwinter/valve/pkg/must"
	"github.com/zachwinter/valve/pkg/registry"
)

// Server is the control-plane TCP listener. It mutates only the registry;
// it never holds a direct handle to the supervisor. After a successful
// mutation it calls notify as a best-effort nudge so the supervisor can
// reconcile promptly, but this is purely an optimization: the reload
// signal remains the path every operator and test can rely on.
type Server struct {
	listener net.Listener
	registry *registry.Registry
	notify   func()
	logger   *logging.Logger
}

// Listen binds the control plane to 127.0.0.1:port. notify, if non-nil, is
// called synchronously on the session's goroutine after every successful
// Register/Unregister, before the reply is written.
func Listen(port int, reg *registry.Registry, notify func(), logger *logging.Logger) (*Server, error) {
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("unable to bind control plane: %w", err)
	}

	logger.Printf("control plane listening on %s", addr)

	return &Server{
		listener: listener,
		registry: reg,
		notify:   notify,
		logger:   logger,
	}, nil
}

// Addr returns the address the server is bound to.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve accepts connections until the listener is closed, running each
// session in its own goroutine.
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return err
		}
		go s.handle(conn)
	}
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	return s.listener.Close()
}

// handle services a single connection, one request per line, until the
// client disconnects.
func (s *Server) handle(conn net.Conn) {
	defer must.Close(conn, s.logger)

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		reply := s.dispatch(line)

		encoded, err := json.Marshal(&reply)
		if err != nil {
			s.logger.Errorf("unable to marshal control reply: %s", err.Error())
			return
		}
		encoded = append(encoded, '\n')
		if _, err := conn.Write(encoded); err != nil {
			s.logger.Warnf("unable to write control reply: %s", err.Error())
			return
		}
	}
	if err := scanner.Err(); err != nil {
		s.logger.Warnf("control session read error: %s", err.Error())
	}
}

// dispatch parses and executes a single request line.
func (s *Server) dispatch(line string) Reply {
	var req Request
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		return errorReply(err.Error())
	}

	switch req.Type {
	case RequestRegister:
		if _, err := s.registry.Add(req.Path); err != nil {
			return errorReply(err.Error())
		}
		s.signal()
		return ok()
	case RequestUnregister:
		if _, found, err := s.registry.RemoveByIDOrPath(req.Target); err != nil {
			return errorReply(err.Error())
		} else if !found {
			return errorReply("not found")
		}
		s.signal()
		return ok()
	case RequestList:
		codebases := s.registry.List()
		items := make([][2]string, len(codebases))
		for i, cb := range codebases {
			items[i] = [2]string{cb.ID, cb.Path}
		}
		return listReply(items)
	default:
		return errorReply(fmt.Sprintf("unknown request type %q", req.Type))
	}
}

// signal calls notify, if set, and returns once it has returned.
func (s *Server) signal() {
	if s.notify != nil {
		s.notify()
	}
}
