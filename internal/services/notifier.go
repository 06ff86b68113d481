package services

// Notifier delivers outcome and fault messages. The engine emits plain text
// and leaves rich rendering to the messaging layer.
type Notifier interface {
	// Notify sends a message to the chat a bet originated from.
	Notify(chatID int64, text string) error
	// NotifyOperator reports an irrecoverable fault to the operator channel.
	NotifyOperator(text string) error
}
