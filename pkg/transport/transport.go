package transport

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrConnection covers DNS, TCP and TLS failures as well as connect timeouts.
	ErrConnection = errors.New("connection error")
	// ErrSend is returned when writing the request fails.
	ErrSend = errors.New("send error")
	// ErrReceive is returned when reading the response fails.
	ErrReceive = errors.New("receive error")
)

// DefaultTimeout bounds connecting, the TLS handshake and every read.
const DefaultTimeout = 10 * time.Second

const readChunkSize = 4096

// Dialer opens connections to origin servers.
type Dialer struct {
	// Timeout for connect, handshake and each read. DefaultTimeout if zero.
	Timeout time.Duration
	// RootCAs overrides the system trust store. Nil means system roots.
	RootCAs *x509.CertPool
}

// Conn is a single-use byte stream to an origin.
type Conn struct {
	conn    net.Conn
	timeout time.Duration
}

func (d Dialer) timeout() time.Duration {
	if d.Timeout <= 0 {
		return DefaultTimeout
	}
	return d.Timeout
}

// Open connects to host:port, wrapping the stream in TLS if secure is set.
// The server certificate is verified against host.
func (d Dialer) Open(host string, port int, secure bool) (*Conn, error) {
	timeout := d.timeout()
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	nd := net.Dialer{Timeout: timeout}
	conn, err := nd.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrConnection, addr, err)
	}
	if secure {
		tlsConn := tls.Client(conn, &tls.Config{
			ServerName: host,
			RootCAs:    d.RootCAs,
		})
		_ = tlsConn.SetDeadline(time.Now().Add(timeout))
		if err := tlsConn.Handshake(); err != nil {
			conn.Close()
			return nil, fmt.Errorf("%w: tls handshake with %s: %v", ErrConnection, addr, err)
		}
		_ = tlsConn.SetDeadline(time.Time{})
		conn = tlsConn
	}
	return &Conn{conn: conn, timeout: timeout}, nil
}

// Send writes the whole request.
func (c *Conn) Send(b []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	if _, err := c.conn.Write(b); err != nil {
		return fmt.Errorf("%w: %v", ErrSend, err)
	}
	return nil
}

// ReceiveAll drains the connection until the peer closes it.
// It also returns early once the header block and a Content-Length sized
// body have arrived, since not every server honors "Connection: close".
func (c *Conn) ReceiveAll() ([]byte, error) {
	var buf bytes.Buffer
	chunk := make([]byte, readChunkSize)
	for {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.timeout))
		n, err := c.conn.Read(chunk)
		buf.Write(chunk[:n])
		if err != nil {
			if errors.Is(err, io.EOF) {
				return buf.Bytes(), nil
			}
			// tls.Conn reports a peer that closed without close_notify like this
			if buf.Len() > 0 && errors.Is(err, io.ErrUnexpectedEOF) {
				return buf.Bytes(), nil
			}
			return buf.Bytes(), fmt.Errorf("%w: %v", ErrReceive, err)
		}
		if complete(buf.Bytes()) {
			return buf.Bytes(), nil
		}
	}
}

// Close releases the connection.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// complete reports whether b holds a header block followed by exactly the
// number of body bytes announced in Content-Length.
func complete(b []byte) bool {
	end := bytes.Index(b, []byte("\r\n\r\n"))
	if end < 0 {
		return false
	}
	length := -1
	for _, line := range strings.Split(string(b[:end]), "\r\n")[1:] {
		name, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "transfer-encoding":
			return false
		case "content-length":
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil || n < 0 {
				return false
			}
			length = n
		}
	}
	return length >= 0 && len(b)-(end+4) >= length
}
