// Package errors turns errors into low-cardinality labels for logs and metrics.
package errors

import (
	"context"
	goerrors "errors"
	"reflect"
	"strings"

	domainauth "github.com/target/secretshare/internal/domain/auth"
)

// Classify returns a short error class. Known auth failures map to fixed names;
// anything else falls back to the innermost concrete type, e.g. "pgconn_pgerror".
func Classify(err error) string {
	if err == nil {
		return ""
	}

	var (
		rej  *domainauth.Rejection
		cred *domainauth.CredentialBackendError
		reg  *domainauth.RegistryError
		rest *domainauth.SessionRestoreError
		prov *domainauth.ProviderError
	)
	switch {
	case goerrors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case goerrors.Is(err, context.Canceled):
		return "canceled"
	case goerrors.As(err, &rej):
		return "rejection"
	case goerrors.Is(err, domainauth.ErrEmailTaken):
		return "email_taken"
	case goerrors.As(err, &cred):
		return "credential_backend"
	case goerrors.As(err, &reg):
		return "registry"
	case goerrors.As(err, &rest):
		return "session_restore"
	case goerrors.As(err, &prov):
		return "provider"
	}
	return typeName(err)
}

func typeName(err error) string {
	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}
	return strings.ReplaceAll(strings.ToLower(t.String()), ".", "_")
}
