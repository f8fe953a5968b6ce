package googledrive

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/kirillkom/hr-onboarding/internal/core/domain"
	"github.com/kirillkom/hr-onboarding/internal/infrastructure/resilience"
)

const listFields googleapi.Field = "nextPageToken, files(id, name, webViewLink)"

// Lister lists the contents of candidate Drive folders.
type Lister struct {
	svc      *drive.Service
	pageSize int64
	executor *resilience.Executor
}

type Options struct {
	CredentialsFile    string
	Endpoint           string
	HTTPClient         *http.Client
	PageSize           int64
	ResilienceExecutor *resilience.Executor
}

func New(ctx context.Context, options Options) (*Lister, error) {
	opts := make([]option.ClientOption, 0, 3)
	if options.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(options.CredentialsFile))
	}
	if options.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(options.Endpoint))
	}
	if options.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(options.HTTPClient))
	}

	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}

	pageSize := options.PageSize
	if pageSize <= 0 || pageSize > 1000 {
		pageSize = 200
	}
	return &Lister{svc: svc, pageSize: pageSize, executor: options.ResilienceExecutor}, nil
}

// ListFiles returns the untrashed files of a folder in the order Drive reports them.
func (l *Lister) ListFiles(ctx context.Context, folderID string) ([]domain.RemoteFile, error) {
	id := strings.TrimSpace(folderID)
	if id == "" || strings.Contains(id, "'") {
		return nil, domain.WrapError(domain.ErrInvalidInput, "drive list", fmt.Errorf("invalid folder id %q", folderID))
	}

	files, err := resilience.Call(ctx, l.executor, "drive.list", func(callCtx context.Context) ([]domain.RemoteFile, error) {
		return l.listOnce(callCtx, id)
	}, classifyDriveError)
	if err != nil {
		return nil, resilience.WrapTemporary("drive list", err, classifyDriveError)
	}
	return files, nil
}

func (l *Lister) listOnce(ctx context.Context, folderID string) ([]domain.RemoteFile, error) {
	out := make([]domain.RemoteFile, 0)
	call := l.svc.Files.List().
		Q(fmt.Sprintf("'%s' in parents and trashed = false", folderID)).
		Fields(listFields).
		PageSize(l.pageSize).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true)

	err := call.Pages(ctx, func(page *drive.FileList) error {
		for _, f := range page.Files {
			out = append(out, domain.RemoteFile{ID: f.Id, Name: f.Name, ViewLink: f.WebViewLink})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("drive files.list folder=%s: %w", folderID, err)
	}
	return out, nil
}

func classifyDriveError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500:
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		case apiErr.Code == http.StatusForbidden && isRateLimitReason(apiErr):
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		default:
			// 4xx answers mean the folder or credentials are wrong, not that Drive is unhealthy.
			return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}

func isRateLimitReason(apiErr *googleapi.Error) bool {
	for _, item := range apiErr.Errors {
		if item.Reason == "rateLimitExceeded" || item.Reason == "userRateLimitExceeded" {
			return true
		}
	}
	return false
}
