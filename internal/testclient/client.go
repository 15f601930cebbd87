// Package testclient drives a running dungeon server over telnet the way
// a player would. The smoke scenarios and server tests use it.
package testclient

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"
)

// DefaultTimeout is how long Expect waits when no timeout is given.
const DefaultTimeout = 2 * time.Second

// EnteredText is printed once a player stands in the dungeon.
const EnteredText = "You stand on floor"

// TestClient represents a test client connection to the server
type TestClient struct {
	Name     string
	Password string

	conn     net.Conn
	writer   *bufio.Writer
	messages []string
	mu       sync.Mutex
	once     sync.Once
}

// PasswordFor returns the password Register uses for name. It satisfies
// the default password policy.
func PasswordFor(name string) string {
	return "Delve" + name + "9"
}

// Dial connects without authenticating. Use it to test the login flow
// itself.
func Dial(address string) (*TestClient, error) {
	conn, err := net.DialTimeout("tcp", address, DefaultTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	c := &TestClient{
		conn:   conn,
		writer: bufio.NewWriter(conn),
	}
	go c.readMessages(bufio.NewReader(conn))
	return c, nil
}

// Register creates a new account called name and waits until the player
// is in the dungeon.
func Register(name, address string) (*TestClient, error) {
	c, err := Dial(address)
	if err != nil {
		return nil, err
	}
	c.Name, c.Password = name, PasswordFor(name)

	if err := c.answer("r", c.Name, c.Password, c.Password); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.Expect(EnteredText, DefaultTimeout); err != nil {
		c.Close()
		return nil, fmt.Errorf("register %s: %w", name, err)
	}
	return c, nil
}

// Login signs in to an existing account and waits until the player is in
// the dungeon.
func Login(name, password, address string) (*TestClient, error) {
	c, err := Dial(address)
	if err != nil {
		return nil, err
	}
	c.Name, c.Password = name, password

	if err := c.answer("l", name, password); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.Expect(EnteredText, DefaultTimeout); err != nil {
		c.Close()
		return nil, fmt.Errorf("login %s: %w", name, err)
	}
	return c, nil
}

// answer sends one line per prompt, pausing so each lands on its own
// prompt.
func (c *TestClient) answer(lines ...string) error {
	for _, line := range lines {
		if err := c.SendCommand(line); err != nil {
			return err
		}
		time.Sleep(50 * time.Millisecond)
	}
	return nil
}

func (c *TestClient) readMessages(r *bufio.Reader) {
	for {
		line, err := r.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			c.mu.Lock()
			c.messages = append(c.messages, line)
			c.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

// SendCommand sends a command to the server
func (c *TestClient) SendCommand(cmd string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.writer.WriteString(cmd + "\n"); err != nil {
		return err
	}
	return c.writer.Flush()
}

// Do clears earlier output, sends cmd and waits for text.
func (c *TestClient) Do(cmd, text string) error {
	c.ClearMessages()
	if err := c.SendCommand(cmd); err != nil {
		return err
	}
	if err := c.Expect(text, DefaultTimeout); err != nil {
		return fmt.Errorf("%s: %w", cmd, err)
	}
	return nil
}

// GetMessages returns all messages received so far
func (c *TestClient) GetMessages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.messages...)
}

// ClearMessages clears the message buffer
func (c *TestClient) ClearMessages() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
}

// HasMessage checks if any message contains the specified text
func (c *TestClient) HasMessage(text string) bool {
	for _, msg := range c.GetMessages() {
		if strings.Contains(msg, text) {
			return true
		}
	}
	return false
}

// Expect waits for a message containing text. The error lists what was
// received instead.
func (c *TestClient) Expect(text string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if c.HasMessage(text) {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("no %q within %s, got %q", text, timeout, c.GetMessages())
		}
		time.Sleep(20 * time.Millisecond)
	}
}

// WaitForMessage reports whether text arrived within timeout.
func (c *TestClient) WaitForMessage(text string, timeout time.Duration) bool {
	return c.Expect(text, timeout) == nil
}

// Close closes the client connection
func (c *TestClient) Close() error {
	var err error
	c.once.Do(func() {
		err = c.conn.Close()
	})
	return err
}
