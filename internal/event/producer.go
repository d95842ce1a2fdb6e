package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sellora/identity/internal/domain"
	pkgkafka "github.com/sellora/identity/pkg/kafka"
)

// Kafka topic constants for identity domain events.
const (
	TopicUserRegistered = "sellora.identity.user.registered"
	TopicUserBanned     = "sellora.identity.user.banned"
	TopicMemberJoined   = "sellora.identity.member.joined"
	TopicMailRequested  = "sellora.notification.mail.requested"
)

// Aggregate type constants.
const (
	AggregateTypeUser         = "user"
	AggregateTypeOrganization = "organization"
)

// Source identifier for events originating from the identity service.
const SourceIdentityService = "identity-service"

// Mail template names consumed by the notification service.
const (
	MailTemplateVerifyEmail   = "verify_email"
	MailTemplateResetPassword = "reset_password"
	MailTemplateChangeEmail   = "change_email"
	MailTemplateInvitation    = "organization_invitation"
)

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// UserBannedData is the payload for a user.banned event.
type UserBannedData struct {
	UserID    string `json:"user_id"`
	Banned    bool   `json:"banned"`
	BanReason string `json:"ban_reason,omitempty"`
}

// MemberJoinedData is the payload for a member.joined event.
type MemberJoinedData struct {
	OrganizationID string `json:"organization_id"`
	MemberID       string `json:"member_id"`
	UserID         string `json:"user_id"`
	RoleID         string `json:"role_id"`
}

// MailRequestedData is the payload for a mail.requested event. The token value
// rides inside the payload so the notification service can build the link; it
// never appears in logs.
type MailRequestedData struct {
	Recipient string            `json:"recipient"`
	Template  string            `json:"template"`
	Params    map[string]string `json:"params,omitempty"`
}

// Producer publishes identity domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the identity service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		Name:     user.Name,
	}

	return p.publish(ctx, TopicUserRegistered, user.ID, AggregateTypeUser, data)
}

// PublishUserBanned publishes a user.banned event covering both ban and unban.
func (p *Producer) PublishUserBanned(ctx context.Context, user *domain.User) error {
	data := UserBannedData{
		UserID:    user.ID,
		Banned:    user.Banned,
		BanReason: user.BanReason,
	}

	return p.publish(ctx, TopicUserBanned, user.ID, AggregateTypeUser, data)
}

// PublishMemberJoined publishes a member.joined event.
func (p *Producer) PublishMemberJoined(ctx context.Context, member *domain.Member) error {
	data := MemberJoinedData{
		OrganizationID: member.OrganizationID,
		MemberID:       member.ID,
		UserID:         member.UserID,
		RoleID:         member.RoleID,
	}

	return p.publish(ctx, TopicMemberJoined, member.OrganizationID, AggregateTypeOrganization, data)
}

// SendVerificationEmail requests a verification mail carrying the token value.
func (p *Producer) SendVerificationEmail(ctx context.Context, recipient, tokenValue string) error {
	return p.sendMail(ctx, recipient, MailTemplateVerifyEmail, map[string]string{"token": tokenValue})
}

// SendPasswordResetEmail requests a password-reset mail carrying the token value.
func (p *Producer) SendPasswordResetEmail(ctx context.Context, recipient, tokenValue string) error {
	return p.sendMail(ctx, recipient, MailTemplateResetPassword, map[string]string{"token": tokenValue})
}

// SendEmailChangeEmail requests a confirmation mail to the new address.
func (p *Producer) SendEmailChangeEmail(ctx context.Context, recipient, tokenValue string) error {
	return p.sendMail(ctx, recipient, MailTemplateChangeEmail, map[string]string{"token": tokenValue})
}

// SendInvitationEmail requests an invitation mail for an organization.
func (p *Producer) SendInvitationEmail(ctx context.Context, recipient, orgName, invitationID string) error {
	return p.sendMail(ctx, recipient, MailTemplateInvitation, map[string]string{
		"organization":  orgName,
		"invitation_id": invitationID,
	})
}

func (p *Producer) sendMail(ctx context.Context, recipient, template string, params map[string]string) error {
	data := MailRequestedData{
		Recipient: recipient,
		Template:  template,
		Params:    params,
	}

	return p.publish(ctx, TopicMailRequested, recipient, AggregateTypeUser, data)
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceIdentityService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)

	return nil
}
