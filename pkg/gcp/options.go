package gcp

import (
	"errors"
	"net/http"
	"strings"

	"github.com/angelmondragon/freightquote-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ClientOptions builds Google API client options from the configured credentials.
func ClientOptions(gcp config.GCPConfig, scopes ...string) []option.ClientOption {
	var opts []option.ClientOption
	switch {
	case strings.TrimSpace(gcp.CredentialsJSON) != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(gcp.CredentialsJSON)))
	case strings.TrimSpace(gcp.ApplicationCredentials) != "":
		opts = append(opts, option.WithCredentialsFile(gcp.ApplicationCredentials))
	}
	if len(scopes) > 0 {
		opts = append(opts, option.WithScopes(scopes...))
	}
	return opts
}

// Classify maps a Google API failure onto the service error codes.
// Throttling and 5xx become DEPENDENCY_ERROR (retryable); auth and missing resources
// become CONFIGURATION_ERROR so callers stop retrying.
func Classify(err error, message string) error {
	if err == nil {
		return nil
	}
	if typed := pkgerrors.As(err); typed != nil {
		return err
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr != nil {
		switch {
		case IsRetryableHTTPCode(apiErr.Code):
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
		case apiErr.Code == http.StatusUnauthorized,
			apiErr.Code == http.StatusForbidden,
			apiErr.Code == http.StatusNotFound:
			return pkgerrors.Wrap(pkgerrors.CodeConfiguration, err, message)
		default:
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, message).WithDetails(map[string]any{"status": apiErr.Code})
		}
	}

	var statusErr interface{ GRPCStatus() *status.Status }
	if errors.As(err, &statusErr) {
		if st := statusErr.GRPCStatus(); st != nil {
			switch st.Code() {
			case codes.NotFound, codes.PermissionDenied, codes.Unauthenticated:
				return pkgerrors.Wrap(pkgerrors.CodeConfiguration, err, message)
			}
		}
	}

	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}

// IsNotFound reports a 404 from a Google REST API.
func IsNotFound(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr != nil {
		return apiErr.Code == http.StatusNotFound
	}
	return false
}

func IsRetryableHTTPCode(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusRequestTimeout,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
