package daemon

import (
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// ConnectTimeout is the default timeout for connecting to the daemon.
const ConnectTimeout = 5 * time.Second

// RequestTimeout is the default timeout for request/response operations.
const RequestTimeout = 30 * time.Second

// Client connects to the daemon over its Unix socket.
// It is safe for concurrent use; requests are serialized on one connection.
type Client struct {
	socketPath string

	mu sync.Mutex
	// +checklocks:mu
	conn net.Conn
	// +checklocks:mu
	encoder *json.Encoder
	// +checklocks:mu
	decoder *json.Decoder

	// ioMu serializes request/response cycles.
	// Must be acquired AFTER mu if both are needed.
	ioMu sync.Mutex

	reqID atomic.Uint64
}

// NewClient creates a new daemon client.
func NewClient(socketPath string) *Client {
	if socketPath == "" {
		socketPath = DefaultSocketPath()
	}
	return &Client{socketPath: socketPath}
}

// Connect establishes a connection to the daemon.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil
	}

	conn, err := net.DialTimeout("unix", c.socketPath, ConnectTimeout)
	if err != nil {
		return fmt.Errorf("dial daemon: %w", err)
	}

	c.conn = conn
	c.encoder = json.NewEncoder(conn)
	c.decoder = json.NewDecoder(conn)
	return nil
}

// Close closes the connection to the daemon.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.encoder = nil
	c.decoder = nil
	return err
}

// IsConnected returns true if the client is connected.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// SocketPath returns the socket path this client connects to.
func (c *Client) SocketPath() string {
	return c.socketPath
}

func (c *Client) nextID() string {
	return fmt.Sprintf("req-%d", c.reqID.Add(1))
}

// decodePayload decodes the response payload into the given type.
// If payload is nil, returns a pointer to the zero value of T.
func decodePayload[T any](payload any) (*T, error) {
	var result T
	if payload == nil {
		return &result, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return &result, nil
}

// Send sends a request and waits for the response.
// On connection errors the connection is dropped so IsConnected reports false.
func (c *Client) Send(req *Request) (*Response, error) {
	c.mu.Lock()
	if c.conn == nil {
		c.mu.Unlock()
		return nil, ErrNotConnected
	}
	conn := c.conn
	encoder := c.encoder
	decoder := c.decoder
	c.mu.Unlock()

	if req.ID == "" {
		req.ID = c.nextID()
	}

	c.ioMu.Lock()
	defer c.ioMu.Unlock()

	if err := conn.SetDeadline(time.Now().Add(RequestTimeout)); err != nil {
		c.dropConn()
		return nil, fmt.Errorf("set deadline: %w", err)
	}
	defer func() { _ = conn.SetDeadline(time.Time{}) }()

	if err := encoder.Encode(req); err != nil {
		c.dropConn()
		return nil, fmt.Errorf("encode request: %w", err)
	}

	var resp Response
	if err := decoder.Decode(&resp); err != nil {
		c.dropConn()
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &resp, nil
}

// dropConn closes the connection and clears connection state.
// Caller must NOT hold c.mu.
func (c *Client) dropConn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
		c.encoder = nil
		c.decoder = nil
	}
}

// call sends a request of type t and returns the response on success,
// or a *ServerError carrying the daemon's error text.
func (c *Client) call(t MessageType, payload any) (*Response, error) {
	resp, err := c.Send(&Request{Type: t, Payload: payload})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, NewServerError(t, resp.Error)
	}
	return resp, nil
}

// Greet invokes the greet command.
func (c *Client) Greet(name string) (string, error) {
	resp, err := c.call(MsgGreet, &GreetRequest{Name: name})
	if err != nil {
		return "", err
	}
	greet, err := decodePayload[GreetResponse](resp.Payload)
	if err != nil {
		return "", err
	}
	return greet.Message, nil
}

// StartService invokes start_service.
// A refused start returns a *ServerError with Message "already running".
func (c *Client) StartService() error {
	_, err := c.call(MsgStartService, nil)
	return err
}

// StopService invokes stop_service.
// Failures carry Message "not running" or "failed to stop".
func (c *Client) StopService() error {
	_, err := c.call(MsgStopService, nil)
	return err
}

// Ping checks daemon connectivity.
func (c *Client) Ping() (*PingResponse, error) {
	resp, err := c.call(MsgPing, nil)
	if err != nil {
		return nil, err
	}
	return decodePayload[PingResponse](resp.Payload)
}

// Status returns daemon and worker status.
func (c *Client) Status() (*StatusResponse, error) {
	resp, err := c.call(MsgStatus, nil)
	if err != nil {
		return nil, err
	}
	return decodePayload[StatusResponse](resp.Payload)
}

// Shutdown asks the daemon to stop the worker and exit.
func (c *Client) Shutdown() error {
	_, err := c.call(MsgShutdown, nil)
	return err
}
