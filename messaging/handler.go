package messaging

import "github.com/arloliu/go-mbrtu/rtu"

// RequestHandler answers incoming requests in the slave role.
//
// A nil response with a nil error sends no reply. Replies to broadcast
// requests are never written.
type RequestHandler interface {
	HandleRequest(req *rtu.Message) (*rtu.Message, error)
}

// RequestHandlerFunc adapts a function to RequestHandler.
type RequestHandlerFunc func(req *rtu.Message) (*rtu.Message, error)

func (f RequestHandlerFunc) HandleRequest(req *rtu.Message) (*rtu.Message, error) {
	return f(req)
}
