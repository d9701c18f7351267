package control

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"time"
)

// Client is a short-lived connection to a running daemon's control plane,
// used by the CLI to issue a single request and read its reply.
type Client struct {
	conn net.Conn
}

// Dial connects to the control plane listening on 127.0.0.1:port.
func Dial(port int) (*Client, error) {
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to control plane: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// send writes req as a single line and reads back a single Reply line.
func (c *Client) send(req Request) (Reply, error) {
	encoded, err := json.Marshal(&req)
	if err != nil {
		return Reply{}, fmt.Errorf("unable to marshal request: %w", err)
	}
	encoded = append(encoded, '\n')
	if _, err := c.conn.Write(encoded); err != nil {
		return Reply{}, fmt.Errorf("unable to send request: %w", err)
	}

	scanner := bufio.NewScanner(c.conn)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return Reply{}, fmt.Errorf("unable to read reply: %w", err)
		}
		return Reply{}, fmt.Errorf("connection closed without a reply")
	}

	var reply Reply
	if err := json.Unmarshal(scanner.Bytes(), &reply); err != nil {
		return Reply{}, fmt.Errorf("unable to parse reply: %w", err)
	}

	return reply, nil
}

// Register asks the daemon to register path as a new codebase.
func (c *Client) Register(path string) error {
	reply, err := c.send(Request{Type: RequestRegister, Path: path})
	if err != nil {
		return err
	}
	if reply.Type == ReplyError {
		return fmt.Errorf("%s", reply.Message)
	}
	return nil
}

// Unregister asks the daemon to remove the codebase matching target (an
// id or a path).
func (c *Client) Unregister(target string) error {
	reply, err := c.send(Request{Type: RequestUnregister, Target: target})
	if err != nil {
		return err
	}
	if reply.Type == ReplyError {
		return fmt.Errorf("%s", reply.Message)
	}
	return nil
}

// List returns the id/path pairs of every registered codebase.
func (c *Client) List() ([][2]string, error) {
	reply, err := c.send(Request{Type: RequestList})
	if err != nil {
		return nil, err
	}
	if reply.Type == ReplyError {
		return nil, fmt.Errorf("%s", reply.Message)
	}
	if reply.Items == nil {
		return nil, nil
	}
	return *reply.Items, nil
}
