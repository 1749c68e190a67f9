// Package rtu implements the Modbus RTU framing layer.
//
// An RTU frame on the wire is:
//
//	[Address(1)][Function(1)][Payload(0–252)][CRC-Lo(1)][CRC-Hi(1)]
//
// The CRC is CRC-16/MODBUS (reflected polynomial 0xA001, initial value 0xFFFF)
// computed over address, function code and payload, transmitted low byte first.
//
// # Messages
//
// [Message] is a closed tagged variant: its [Kind] is either a request or a
// response. Address 0 is the broadcast address; a broadcast request expects
// no reply.
//
// # Decoding a stream
//
// RTU has no length field, so the payload length of an incoming frame is
// derived from its function code (and, for variable-length functions, from a
// byte count inside the payload). A [Codec] delegates that to a
// [LengthResolver]; [RequestLength] and [ResponseLength] cover the standard
// public function codes and [ResolverMap] registers additional ones.
//
// [Codec.Decode] works on a [Buffer] with mark/reset support and is
// re-entrant: feeding a frame one byte at a time yields the same result as
// feeding it at once. While a frame is still arriving it reports
// [ErrIncomplete] and leaves the buffer untouched.
//
// # Correlation
//
// A [Key] matches a response to the pending request that caused it. The
// [DefaultKeyFactory] keys by slave address and function code with the
// exception bit masked, so an exception reply resolves the same waiter.
package rtu
