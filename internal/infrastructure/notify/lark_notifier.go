package notify

import (
	"context"
	"encoding/json"
	"fmt"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkIm "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"

	"github.com/garyjia/library-acquisition/internal/application/port"
)

// ReceiveIDTypeEmail addresses Lark users by their email
const ReceiveIDTypeEmail = "email"

// MessageSender delivers one IM message and returns its message id
type MessageSender interface {
	SendMessage(ctx context.Context, receiveIDType, receiveID, msgType, content string) (string, error)
}

// LarkConfig holds Lark client configuration
type LarkConfig struct {
	AppID         string
	AppSecret     string
	ReceiveIDType string
}

// MessageAPI sends IM messages through the Lark SDK
type MessageAPI struct {
	client *lark.Client
	logger *zap.Logger
}

// NewMessageAPI creates a Lark SDK client with a cached tenant token
func NewMessageAPI(cfg LarkConfig, logger *zap.Logger) *MessageAPI {
	client := lark.NewClient(cfg.AppID, cfg.AppSecret,
		lark.WithLogLevel(larkcore.LogLevelInfo),
		lark.WithEnableTokenCache(true),
	)
	return &MessageAPI{client: client, logger: logger}
}

// SendMessage sends a message to a user or group
func (m *MessageAPI) SendMessage(ctx context.Context, receiveIDType, receiveID, msgType, content string) (string, error) {
	req := larkIm.NewCreateMessageReqBuilder().
		ReceiveIdType(receiveIDType).
		Body(larkIm.NewCreateMessageReqBodyBuilder().
			ReceiveId(receiveID).
			MsgType(msgType).
			Content(content).
			Build()).
		Build()

	resp, err := m.client.Im.Message.Create(ctx, req)
	if err != nil {
		m.logger.Error("Failed to send message",
			zap.String("receive_id", receiveID),
			zap.Error(err))
		return "", fmt.Errorf("failed to send message: %w", err)
	}

	if !resp.Success() {
		m.logger.Error("API returned failure",
			zap.String("receive_id", receiveID),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return "", fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	messageID := ""
	if resp.Data != nil && resp.Data.MessageId != nil {
		messageID = *resp.Data.MessageId
	}
	return messageID, nil
}

// LarkNotifier renders templates into Lark text messages
type LarkNotifier struct {
	sender        MessageSender
	renderer      *Renderer
	receiveIDType string
	logger        *zap.Logger
}

// NewLarkNotifier creates a Lark-backed notifier. receiveIDType defaults to email.
func NewLarkNotifier(sender MessageSender, renderer *Renderer, receiveIDType string, logger *zap.Logger) *LarkNotifier {
	if receiveIDType == "" {
		receiveIDType = ReceiveIDTypeEmail
	}
	return &LarkNotifier{
		sender:        sender,
		renderer:      renderer,
		receiveIDType: receiveIDType,
		logger:        logger,
	}
}

// Send renders template and delivers it to recipientEmail
func (n *LarkNotifier) Send(ctx context.Context, template, recipientEmail string, data map[string]interface{}) error {
	if recipientEmail == "" {
		return fmt.Errorf("recipient cannot be empty")
	}

	subject, body, err := n.renderer.Render(template, data)
	if err != nil {
		return err
	}

	content, err := json.Marshal(map[string]string{"text": subject + "\n\n" + body})
	if err != nil {
		return fmt.Errorf("failed to marshal message content: %w", err)
	}

	messageID, err := n.sender.SendMessage(ctx, n.receiveIDType, recipientEmail, "text", string(content))
	if err != nil {
		return fmt.Errorf("failed to send %s notification: %w", template, err)
	}

	n.logger.Info("Notification sent",
		zap.String("template", template),
		zap.String("recipient", recipientEmail),
		zap.String("message_id", messageID))
	return nil
}

var (
	_ port.Notifier = (*LarkNotifier)(nil)
	_ MessageSender = (*MessageAPI)(nil)
)
