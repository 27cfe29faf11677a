package push

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

var ErrMissingToken = errors.New("push: notification has no device token")

type FCMProvider struct {
	client *messaging.Client
}

func NewFCMProvider(ctx context.Context, projectID, credentialsFile string) (*FCMProvider, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	return &FCMProvider{
		client: client,
	}, nil
}

func (f *FCMProvider) SendNotification(ctx context.Context, request *NotificationRequest) (*NotificationResponse, error) {
	message, err := buildMessage(request)
	if err != nil {
		return &NotificationResponse{Success: false, Error: err.Error()}, err
	}

	response, err := f.client.Send(ctx, message)
	if err != nil {
		return &NotificationResponse{
			Success: false,
			Error:   err.Error(),
			Token:   request.Token,
		}, err
	}

	return &NotificationResponse{
		MessageID: response,
		Success:   true,
		Token:     request.Token,
	}, nil
}

func buildMessage(request *NotificationRequest) (*messaging.Message, error) {
	if request.Token == "" {
		return nil, ErrMissingToken
	}

	message := &messaging.Message{
		Token: request.Token,
		Data:  request.Data,
	}

	if request.Title != "" || request.Body != "" {
		message.Notification = &messaging.Notification{
			Title: request.Title,
			Body:  request.Body,
		}
	}

	priority := request.Priority
	if priority == "" {
		priority = "normal"
	}
	message.Android = &messaging.AndroidConfig{
		Priority:    priority,
		CollapseKey: request.CollapseKey,
		Notification: &messaging.AndroidNotification{
			ChannelID: request.ChannelID,
		},
	}

	apnsPriority := "5"
	if priority == "high" {
		apnsPriority = "10"
	}
	message.APNS = &messaging.APNSConfig{
		Headers: map[string]string{"apns-priority": apnsPriority},
		Payload: &messaging.APNSPayload{
			Aps: &messaging.Aps{Sound: "default"},
		},
	}

	return message, nil
}
