package gmail

import (
	"context"
	"fmt"
	"net/http"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// userID addresses the authenticated mailbox.
const userID = "me"

// Message formats accepted by MessageService.Get.
const (
	FormatMetadata = "metadata"
	FormatFull     = "full"
)

// MessageService is the subset of users.messages the Client uses.
type MessageService interface {
	// List returns one page of message ids matching query.
	List(ctx context.Context, query, pageToken string, pageSize int64) (*gmail.ListMessagesResponse, error)

	// Get fetches one message. headers restricts the metadata format.
	Get(ctx context.Context, id, format string, headers ...string) (*gmail.Message, error)

	// Modify changes the labels of one message.
	Modify(ctx context.Context, id string, req *gmail.ModifyMessageRequest) error
}

// apiService implements MessageService with the Gmail REST API.
type apiService struct {
	msgs *gmail.UsersMessagesService
}

// NewService creates a MessageService that authenticates with httpClient.
func NewService(ctx context.Context, httpClient *http.Client) (MessageService, error) {
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %w", err)
	}
	return &apiService{msgs: svc.Users.Messages}, nil
}

func (s *apiService) List(ctx context.Context, query, pageToken string, pageSize int64) (*gmail.ListMessagesResponse, error) {
	call := s.msgs.List(userID).Q(query).Context(ctx)
	if pageSize > 0 {
		call = call.MaxResults(pageSize)
	}
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	return call.Do()
}

func (s *apiService) Get(ctx context.Context, id, format string, headers ...string) (*gmail.Message, error) {
	call := s.msgs.Get(userID, id).Format(format).Context(ctx)
	if len(headers) > 0 {
		call = call.MetadataHeaders(headers...)
	}
	return call.Do()
}

func (s *apiService) Modify(ctx context.Context, id string, req *gmail.ModifyMessageRequest) error {
	_, err := s.msgs.Modify(userID, id, req).Context(ctx).Do()
	return err
}
