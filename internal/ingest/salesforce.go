package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AngelCh415/leadboard/internal/config"
	"github.com/AngelCh415/leadboard/internal/models"
	"github.com/AngelCh415/leadboard/internal/utils"
)

var ErrAuthentication = errors.New("salesforce authentication failed")

const leadQuery = `SELECT Id, Status, CreatedDate, OwnerId, LeadSource, Owner.Name, Name, ` +
	`Product__c, State, Lead_State_Province__c, Street FROM Lead`

// Salesforce date-times look like 2024-01-15T10:30:00.000+0000.
const sfTimeLayout = "2006-01-02T15:04:05.000-0700"

// Salesforce pulls every Lead through the REST query API.
type Salesforce struct {
	c       HTTPClient
	cfg     config.Salesforce
	log     *slog.Logger
	backoff utils.Backoff
}

func NewSalesforce(c HTTPClient, cfg config.Salesforce, log *slog.Logger) *Salesforce {
	return &Salesforce{
		c:       c,
		cfg:     cfg,
		log:     log,
		backoff: utils.NewBackoff(cfg.RetryBase, cfg.MaxRetries),
	}
}

type tokenResp struct {
	AccessToken string `json:"access_token"`
	InstanceURL string `json:"instance_url"`
}

type queryResp struct {
	TotalSize      int        `json:"totalSize"`
	Done           bool       `json:"done"`
	NextRecordsURL string     `json:"nextRecordsUrl"`
	Records        []leadResp `json:"records"`
}

type leadResp struct {
	ID          string  `json:"Id"`
	Name        string  `json:"Name"`
	Status      string  `json:"Status"`
	CreatedDate string  `json:"CreatedDate"`
	LeadSource  *string `json:"LeadSource"`
	Owner       *struct {
		Name string `json:"Name"`
	} `json:"Owner"`
	Product       *string `json:"Product__c"`
	State         *string `json:"State"`
	StateProvince *string `json:"Lead_State_Province__c"`
	Street        *string `json:"Street"`
}

func (s *Salesforce) FetchAllLeads(ctx context.Context) ([]models.RawRecord, error) {
	instance, token, err := s.login(ctx)
	if err != nil {
		return nil, err
	}

	next := fmt.Sprintf("%s/services/data/%s/query?q=%s",
		strings.TrimRight(instance, "/"), s.cfg.APIVersion, url.QueryEscape(leadQuery))
	var out []models.RawRecord
	for page := 1; next != ""; page++ {
		var qr queryResp
		if err := s.getWithRetry(ctx, next, token, &qr); err != nil {
			return nil, err
		}
		for _, r := range qr.Records {
			out = append(out, s.toRaw(r))
		}
		s.log.Debug("lead page fetched", slog.Int("page", page), slog.Int("records", len(qr.Records)), slog.Int("total", qr.TotalSize))
		next = ""
		if !qr.Done && qr.NextRecordsURL != "" {
			next = strings.TrimRight(instance, "/") + qr.NextRecordsURL
		}
	}
	s.log.Info("salesforce fetch complete", slog.Int("records", len(out)))
	return out, nil
}

// login returns the instance URL and bearer token, using the configured
// access token when there is one and the OAuth password grant otherwise.
func (s *Salesforce) login(ctx context.Context) (string, string, error) {
	if s.cfg.AccessToken != "" {
		if s.cfg.InstanceURL == "" {
			return "", "", fmt.Errorf("%w: access token set without instance url", ErrAuthentication)
		}
		return s.cfg.InstanceURL, s.cfg.AccessToken, nil
	}
	if s.cfg.Username == "" || s.cfg.Password == "" {
		return "", "", fmt.Errorf("%w: missing credentials", ErrAuthentication)
	}

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("client_id", s.cfg.ClientID)
	form.Set("client_secret", s.cfg.ClientSecret)
	form.Set("username", s.cfg.Username)
	form.Set("password", s.cfg.Password+s.cfg.SecurityToken)

	var tr tokenResp
	tokenURL := strings.TrimRight(s.cfg.LoginURL, "/") + "/services/oauth2/token"
	err := s.backoff.Do(ctx, func(int) error {
		err := postForm(ctx, s.c, tokenURL, form, &tr)
		var se *StatusError
		if errors.As(err, &se) && !se.Retryable() {
			return utils.Permanent(fmt.Errorf("%w: %v", ErrAuthentication, err))
		}
		return err
	})
	if err != nil {
		s.log.Error("salesforce login failed", slog.String("err", err.Error()))
		return "", "", err
	}
	instance := tr.InstanceURL
	if s.cfg.InstanceURL != "" {
		instance = s.cfg.InstanceURL
	}
	s.log.Info("salesforce login ok", slog.String("instance", instance))
	return instance, tr.AccessToken, nil
}

func (s *Salesforce) getWithRetry(ctx context.Context, u, token string, dst any) error {
	return s.backoff.Do(ctx, func(i int) error {
		err := getJSON(ctx, s.c, u, token, dst)
		if err == nil {
			return nil
		}
		var se *StatusError
		if errors.As(err, &se) {
			if se.Code == http.StatusUnauthorized {
				return utils.Permanent(fmt.Errorf("%w: %v", ErrAuthentication, err))
			}
			if !se.Retryable() {
				return utils.Permanent(err)
			}
		}
		s.log.Warn("salesforce request failed", slog.Int("attempt", i+1), slog.String("err", err.Error()))
		return err
	})
}

func (s *Salesforce) toRaw(r leadResp) models.RawRecord {
	raw := models.RawRecord{
		ID:            r.ID,
		Name:          r.Name,
		Status:        r.Status,
		LeadSource:    deref(r.LeadSource),
		Product:       deref(r.Product),
		State:         deref(r.State),
		StateProvince: deref(r.StateProvince),
		Street:        deref(r.Street),
	}
	if r.Owner != nil {
		raw.OwnerName = r.Owner.Name
	}
	if r.CreatedDate != "" {
		t, err := parseSFTime(r.CreatedDate)
		if err != nil {
			s.log.Warn("unparseable CreatedDate", slog.String("id", r.ID), slog.String("value", r.CreatedDate))
		}
		raw.CreatedAt = t
	}
	return raw
}

func parseSFTime(v string) (time.Time, error) {
	if t, err := time.Parse(sfTimeLayout, v); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, v)
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
