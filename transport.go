package go2web

import (
	"fmt"

	rawresponse "github.com/ericselin/go2web/pkg/raw-response"
	requestbuilder "github.com/ericselin/go2web/pkg/request-builder"
	"github.com/ericselin/go2web/pkg/transport"
)

// roundTrip sends the request of ex with the given headers over a new
// connection and decodes the response.
// A reply without a status line is a receive error.
func (c *Client) roundTrip(ex *exchange, headers requestbuilder.Header) (rawresponse.Response, error) {
	u := ex.url
	conn, err := c.dialer.Open(u.Host, u.Port, u.Secure())
	if err != nil {
		return "", err
	}
	defer conn.Close()

	req := c.builder.Build(ex.method, u.Path, u.HostHeader(), headers, ex.body)
	ex.log.Trace().Msgf("Sending %s request (%d bytes)", ex.method, len(req))
	if err := conn.Send(req); err != nil {
		return "", err
	}
	raw, err := conn.ReceiveAll()
	if err != nil {
		return "", err
	}
	ex.log.Trace().Msgf("Received %d bytes", len(raw))
	if len(raw) == 0 {
		return "", fmt.Errorf("%w: empty response", transport.ErrReceive)
	}
	res := rawresponse.Decode(raw)
	if res.StatusCode() == 0 {
		return res, fmt.Errorf("%w: no status line in %d bytes", transport.ErrReceive, len(raw))
	}
	return res, nil
}
