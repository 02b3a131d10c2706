package go2web

import (
	"github.com/ericselin/go2web/pkg/transport"
	urlresolver "github.com/ericselin/go2web/pkg/url-resolver"
)

// Errors returned by Client.Do. Match them with errors.Is.
var (
	ErrInvalidURL = urlresolver.ErrInvalidURL
	ErrConnection = transport.ErrConnection
	ErrSend       = transport.ErrSend
	ErrReceive    = transport.ErrReceive
)
