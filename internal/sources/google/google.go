// Package google loads a bank statement export kept in a Google Sheets
// spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"finview/internal/core"
	"finview/internal/log"
	"finview/internal/sources"
)

const DefaultSheetName = "Operations"

type Config struct {
	SpreadsheetID string
	SheetName     string
	// Service account credentials, inline JSON or a file path. When both are
	// empty GOOGLE_APPLICATION_CREDENTIALS is consulted.
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
	log           *log.Logger
}

var _ sources.Loader = (*Client)(nil)

// New creates a read-only Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentSources)

	svc, err := newSheetsService(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, cfg.SpreadsheetID, cfg.SheetName, logger), nil
}

// NewWithService wraps an already configured Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheet string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Discard()
	}
	if strings.TrimSpace(sheet) == "" {
		sheet = DefaultSheetName
	}
	return &Client{
		svc:           svc,
		spreadsheetID: strings.TrimSpace(spreadsheetID),
		sheet:         strings.TrimSpace(sheet),
		log:           logger.WithComponent(log.ComponentSources),
	}
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context, cfg Config, logger *log.Logger) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(cfg.CredentialsJSON)
	serviceAccountFile := strings.TrimSpace(cfg.CredentialsFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		logger.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		logger.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		data, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	creds, err := googleoauth.CredentialsFromJSON(ctx, credentialsJSON, gsheet.SpreadsheetsReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}
	// WithHTTPClient bypasses option-based credentials, so the pooled
	// transport is wrapped with the token source here.
	base := newHTTPClient()
	client := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, base), creds.TokenSource)
	client.Timeout = base.Timeout

	service, err := gsheet.NewService(ctx, goption.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// newHTTPClient returns a pooled client with bounded timeouts for the
// Sheets API.
func newHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: 60 * time.Second}
}

// Load reads the whole sheet. The first row is the header.
func (c *Client) Load(ctx context.Context) (core.Dataset, error) {
	if c.svc == nil {
		return core.Dataset{}, errors.New("sheets service not initialized")
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.sheet).
		ValueRenderOption("FORMATTED_VALUE").Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
			return core.Dataset{}, fmt.Errorf("%w: sheet %q", sources.ErrNotFound, c.sheet)
		}
		return core.Dataset{}, fmt.Errorf("read %s: %w", c.sheet, err)
	}

	var header []string
	rows := make([][]string, 0, len(resp.Values))
	for i, r := range resp.Values {
		if i == 0 {
			header = toStrings(r)
			continue
		}
		rows = append(rows, toStrings(r))
	}
	ds, stats, err := sources.Decode(header, rows)
	if err != nil {
		c.log.ErrorContext(ctx, "Sheet rejected", log.FieldSource, c.sheet, log.FieldError, err)
		return core.Dataset{}, err
	}
	sources.LogStats(ctx, c.log, c.sheet, stats)
	return ds, nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
