package rtu

const (
	// MinFrameSize is address + function + CRC.
	MinFrameSize = 4
	// MaxFrameSize is the maximum RTU ADU size.
	MaxFrameSize = 256
	// MaxPayloadSize is the maximum number of payload bytes after the function code.
	MaxPayloadSize = MaxFrameSize - MinFrameSize

	// BroadcastAddress is the slave address that addresses every device.
	BroadcastAddress = 0

	headerSize = 2
	crcSize    = 2

	// exceptionBit is set in the function code of an exception response.
	exceptionBit = 0x80
)

// Public function codes.
const (
	FuncCodeReadCoils                  = 0x01
	FuncCodeReadDiscreteInputs         = 0x02
	FuncCodeReadHoldingRegisters       = 0x03
	FuncCodeReadInputRegisters         = 0x04
	FuncCodeWriteSingleCoil            = 0x05
	FuncCodeWriteSingleRegister        = 0x06
	FuncCodeReadExceptionStatus        = 0x07
	FuncCodeDiagnostics                = 0x08
	FuncCodeGetCommEventCounter        = 0x0B
	FuncCodeWriteMultipleCoils         = 0x0F
	FuncCodeWriteMultipleRegisters     = 0x10
	FuncCodeReportServerID             = 0x11
	FuncCodeMaskWriteRegister          = 0x16
	FuncCodeReadWriteMultipleRegisters = 0x17
	FuncCodeReadFIFOQueue              = 0x18
)

// Exception codes carried in the single payload byte of an exception response.
const (
	ExceptionIllegalFunction                    = 0x01
	ExceptionIllegalDataAddress                 = 0x02
	ExceptionIllegalDataValue                   = 0x03
	ExceptionServerDeviceFailure                = 0x04
	ExceptionAcknowledge                        = 0x05
	ExceptionServerDeviceBusy                   = 0x06
	ExceptionMemoryParityError                  = 0x08
	ExceptionGatewayPathUnavailable             = 0x0A
	ExceptionGatewayTargetDeviceFailedToRespond = 0x0B
)
