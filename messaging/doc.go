// Package messaging implements the request/response engine of a Modbus RTU
// master or slave on top of a transport.
//
// [MessageControl] frames outgoing requests, parses incoming bytes into
// messages, and correlates each response with the pending request that
// caused it through a [WaitingRoom]. A request is retried as a whole
// write-and-wait cycle until a response arrives or the retry budget is
// spent.
//
// Writes from any number of goroutines are serialized by a single writer
// task, so frames never interleave on the shared half-duplex line. Inbound
// bytes are parsed on the transport's read goroutine; requests go to the
// [RequestHandler], responses wake the matching sender, and framing errors
// go to the [ExceptionHandler] without stopping the receive loop.
//
// Example:
//
//	codec := rtu.NewCodec(rtu.RoleMaster)
//	mc, err := messaging.NewMessageControl(codec,
//	    messaging.WithTimeout(300*time.Millisecond),
//	    messaging.WithRetries(2),
//	)
//	if err != nil {
//	    return err
//	}
//	if err := mc.Start(tr, nil); err != nil {
//	    return err
//	}
//	defer mc.Close()
//
//	resp, err := mc.Send(ctx, rtu.NewReadRequest(1, rtu.FuncCodeReadHoldingRegisters, 0, 10))
package messaging
