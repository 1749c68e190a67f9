package rtu

import "fmt"

// Key correlates a response with the request that caused it.
//
// Two requests in flight at the same time must map to different keys;
// the waiting room does not arbitrate between colliding keys.
type Key struct {
	SlaveID      byte
	FunctionCode byte
	// Discriminator carries request-specific context such as a starting
	// register address when several requests share slave and function.
	Discriminator uint32
}

func (k Key) String() string {
	return fmt.Sprintf("slave=%d fc=0x%02X disc=%d", k.SlaveID, k.FunctionCode, k.Discriminator)
}

// KeyFactory derives correlation keys from requests and responses.
type KeyFactory interface {
	Key(msg *Message) Key
}

// KeyFactoryFunc adapts a function to KeyFactory.
type KeyFactoryFunc func(msg *Message) Key

func (f KeyFactoryFunc) Key(msg *Message) Key {
	return f(msg)
}

// DefaultKeyFactory keys messages by slave address and function code,
// ignoring the exception bit.
var DefaultKeyFactory KeyFactory = KeyFactoryFunc(func(msg *Message) Key {
	return Key{
		SlaveID:      msg.SlaveID,
		FunctionCode: msg.FunctionCode &^ exceptionBit,
	}
})
