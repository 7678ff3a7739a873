package constant

// Order codes (21xx)
const (
	CodeOrderNotFound      = 2100
	CodeOrderStatusInvalid = 2102
	CodeOrderAmountInvalid = 2103
)

// Product codes (22xx)
const (
	CodeProductNotFound = 2200
)

// Messaging codes (27xx)
const (
	CodeMessagingNotConnected = 2700 // send attempted while the session is not connected
	CodeMessagingDisabled     = 2701 // whatsapp_enabled is off
	CodeNotifyAlreadyClaimed  = 2702 // watermark CAS lost; another caller owns the send
)
