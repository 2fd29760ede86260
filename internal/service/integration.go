package service

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"circular-storefront/internal/client"
	"circular-storefront/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const syncConcurrency = 4

// MailingListSettings are the config fallbacks for the mailing_list section.
type MailingListSettings struct {
	APIKey string
	ListID string
}

type SyncResult struct {
	Total  int `json:"total"`
	Synced int `json:"synced"`
	Failed int `json:"failed"`
}

type CampaignInput struct {
	Subject string
	HTML    string
	ReplyTo string
}

type IntegrationService interface {
	TestEmail(ctx context.Context) error
	SendEmail(ctx context.Context, to, subject, html string) (string, error)
	TestMailingList(ctx context.Context) error
	SyncMailingList(ctx context.Context) (*SyncResult, error)
	SendCampaign(ctx context.Context, in CampaignInput) (string, error)
}

type integrationServiceImpl struct {
	emailClient       client.EmailClient
	mailingListClient client.MailingListClient
	content           ContentService
	subscriberRepo    repository.SubscriberRepository
	email             EmailSettings
	mailingList       MailingListSettings
	log               *zap.Logger
}

func NewIntegrationService(
	emailClient client.EmailClient,
	mailingListClient client.MailingListClient,
	content ContentService,
	subscriberRepo repository.SubscriberRepository,
	email EmailSettings,
	mailingList MailingListSettings,
	log *zap.Logger,
) IntegrationService {
	return &integrationServiceImpl{
		emailClient:       emailClient,
		mailingListClient: mailingListClient,
		content:           content,
		subscriberRepo:    subscriberRepo,
		email:             email,
		mailingList:       mailingList,
		log:               log,
	}
}

// setting reads a CMS-managed integration value, falling back to config.
func (s *integrationServiceImpl) setting(ctx context.Context, section, field, fallback string) (string, error) {
	v, err := s.content.Setting(ctx, PageIntegrations, section, field)
	if err != nil {
		return "", err
	}
	if v == "" {
		return fallback, nil
	}
	return v, nil
}

func upstream(err error) error {
	return fmt.Errorf("%w: %v", ErrUpstream, err)
}

func (s *integrationServiceImpl) TestEmail(ctx context.Context) error {
	apiKey, err := s.setting(ctx, SectionEmailProvider, IntegrationAPIKeyField, s.email.APIKey)
	if err != nil {
		return err
	}
	if err := s.emailClient.TestConnection(ctx, apiKey); err != nil {
		return upstream(err)
	}
	return nil
}

func (s *integrationServiceImpl) SendEmail(ctx context.Context, to, subject, html string) (string, error) {
	if strings.TrimSpace(to) == "" || strings.TrimSpace(subject) == "" {
		return "", fmt.Errorf("%w: recipient and subject are required", ErrValidation)
	}

	apiKey, err := s.setting(ctx, SectionEmailProvider, IntegrationAPIKeyField, s.email.APIKey)
	if err != nil {
		return "", err
	}
	from, err := s.setting(ctx, SectionEmailProvider, "from_address", s.email.FromAddress)
	if err != nil {
		return "", err
	}

	resp, err := s.emailClient.Send(ctx, apiKey, &client.Email{
		From:    from,
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return "", upstream(err)
	}
	return resp.ID, nil
}

func (s *integrationServiceImpl) mailingListCredentials(ctx context.Context) (apiKey, listID string, err error) {
	apiKey, err = s.setting(ctx, SectionMailingList, IntegrationAPIKeyField, s.mailingList.APIKey)
	if err != nil {
		return "", "", err
	}
	listID, err = s.setting(ctx, SectionMailingList, "list_id", s.mailingList.ListID)
	if err != nil {
		return "", "", err
	}
	return apiKey, listID, nil
}

func (s *integrationServiceImpl) TestMailingList(ctx context.Context) error {
	apiKey, err := s.setting(ctx, SectionMailingList, IntegrationAPIKeyField, s.mailingList.APIKey)
	if err != nil {
		return err
	}
	if err := s.mailingListClient.TestConnection(ctx, apiKey); err != nil {
		return upstream(err)
	}
	return nil
}

// SyncMailingList pushes every active subscriber to the list. A failed
// member is logged and counted; it does not stop the others.
func (s *integrationServiceImpl) SyncMailingList(ctx context.Context) (*SyncResult, error) {
	apiKey, listID, err := s.mailingListCredentials(ctx)
	if err != nil {
		return nil, err
	}
	if listID == "" {
		return nil, fmt.Errorf("%w: mailing list id is not configured", ErrValidation)
	}

	subscribers, err := s.subscriberRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active subscribers: %w", err)
	}

	var synced, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(syncConcurrency)
	for _, sub := range subscribers {
		sub := sub
		g.Go(func() error {
			err := s.mailingListClient.UpsertMember(gctx, apiKey, listID, client.ListMember{
				Email: sub.Email,
				Name:  sub.Name,
			})
			if err != nil {
				failed.Add(1)
				s.log.Warn("mailing list sync failed for subscriber",
					zap.String("email", sub.Email), zap.Error(err))
				return nil
			}
			synced.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &SyncResult{
		Total:  len(subscribers),
		Synced: int(synced.Load()),
		Failed: int(failed.Load()),
	}
	s.log.Info("mailing list sync finished",
		zap.Int("total", result.Total), zap.Int("synced", result.Synced), zap.Int("failed", result.Failed))
	return result, nil
}

func (s *integrationServiceImpl) SendCampaign(ctx context.Context, in CampaignInput) (string, error) {
	if strings.TrimSpace(in.Subject) == "" || strings.TrimSpace(in.HTML) == "" {
		return "", fmt.Errorf("%w: subject and body are required", ErrValidation)
	}

	apiKey, listID, err := s.mailingListCredentials(ctx)
	if err != nil {
		return "", err
	}
	fromName, err := s.setting(ctx, SectionMailingList, "from_name", "")
	if err != nil {
		return "", err
	}
	replyTo := in.ReplyTo
	if replyTo == "" {
		replyTo = s.email.FromAddress
	}

	id, err := s.mailingListClient.SendCampaign(ctx, apiKey, listID, client.Campaign{
		Subject:  in.Subject,
		FromName: fromName,
		ReplyTo:  replyTo,
		HTML:     in.HTML,
	})
	if err != nil {
		return "", upstream(err)
	}
	return id, nil
}
