package transport

import "context"

// NewNoop returns a client that accepts every call and does nothing. It keeps
// chat plumbing optional in tests and in components that only sometimes have
// a live bot behind them.
func NewNoop() Client {
	return noopClient{}
}

type noopClient struct{}

func (noopClient) GetMe(ctx context.Context) (User, error) {
	return User{IsBot: true, Username: "noop"}, nil
}

func (noopClient) SendMessage(ctx context.Context, msg TextMessage) (Message, error) {
	return Message{}, nil
}

func (noopClient) EditMessageText(ctx context.Context, chatID int64, messageID int, text string) error {
	return nil
}

func (noopClient) DeleteMessage(ctx context.Context, chatID int64, messageID int) error { return nil }

func (noopClient) SendVideo(ctx context.Context, upload Upload) (Message, error) {
	return Message{}, nil
}

func (noopClient) SendDocument(ctx context.Context, upload Upload) (Message, error) {
	return Message{}, nil
}

func (noopClient) SetWebhook(ctx context.Context, webhookURL string) error { return nil }

func (noopClient) DeleteWebhook(ctx context.Context) error { return nil }
