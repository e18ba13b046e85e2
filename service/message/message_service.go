package message

import (
	"context"
	"encoding/json"
	"fmt"

	"termpool/core"
	"termpool/pkg/id"
	"termpool/pkg/resthttp"

	"github.com/yiplee/structs"
)

type messageService struct {
	notifier core.Notifier
}

// New new message service
func New(notifier core.Notifier) core.IMessageService {
	return &messageService{
		notifier: notifier,
	}
}

func (s *messageService) Build(userID, action string, payload interface{}) (*core.Message, error) {
	body := map[string]interface{}{}
	switch v := payload.(type) {
	case nil:
	case map[string]interface{}:
		body = v
	default:
		body = structs.Map(payload)
	}
	body["action"] = action

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	return &core.Message{
		MessageID: id.GenTraceID(),
		UserID:    userID,
		Action:    action,
		Body:      raw,
	}, nil
}

func (s *messageService) Send(ctx context.Context, message *core.Message) error {
	if s.notifier.Endpoint == "" {
		return nil
	}

	payload := map[string]interface{}{
		"message_id": message.MessageID,
		"user_id":    message.UserID,
		"action":     message.Action,
		"body":       json.RawMessage(message.Body),
	}

	r, err := resthttp.WithRequestID(ctx, message.MessageID).
		SetBody(payload).
		Post(s.notifier.Endpoint)
	if err != nil {
		return err
	}

	if r.IsError() {
		return fmt.Errorf("notifier respond %s", r.Status())
	}

	return nil
}
