package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapDBError_NilError(t *testing.T) {
	if err := MapDBError(nil); err != nil {
		t.Errorf("MapDBError(nil) = %v, want nil", err)
	}
}

func TestMapDBError_ContextErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode ErrorCode
	}{
		{name: "deadline exceeded", err: context.DeadlineExceeded, wantCode: ErrCodeTimeout},
		{name: "canceled", err: fmt.Errorf("query: %w", context.Canceled), wantCode: ErrCodeCanceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.err)
			if !Is(err, tt.wantCode) {
				t.Errorf("MapDBError() code = %v, want %v", GetCode(err), tt.wantCode)
			}
		})
	}
}

func TestMapDBError_NoRows(t *testing.T) {
	err := MapDBError(pgx.ErrNoRows)
	if !IsNotFound(err) {
		t.Errorf("MapDBError(pgx.ErrNoRows) should be NotFound, got %v", GetCode(err))
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		t.Error("mapped error should wrap pgx.ErrNoRows")
	}
}

func TestMapDBError_UniqueViolation(t *testing.T) {
	tests := []struct {
		name      string
		pgErr     *pgconn.PgError
		wantField string
	}{
		{
			name:      "column name",
			pgErr:     &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_pkey", ColumnName: "email"},
			wantField: "email",
		},
		{
			name: "detail message",
			pgErr: &pgconn.PgError{
				Code:           pgerrcode.UniqueViolation,
				ConstraintName: "users_pkey",
				Detail:         `Key (email)=(a@example.com) already exists.`,
			},
			wantField: "email",
		},
		{
			name:      "constraint name",
			pgErr:     &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"},
			wantField: "email",
		},
		{
			name:      "primary key without detail",
			pgErr:     &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_pkey"},
			wantField: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.pgErr)
			if !IsConflict(err) {
				t.Fatalf("expected conflict, got %v", GetCode(err))
			}
			if got := GetField(err); got != tt.wantField {
				t.Errorf("field = %q, want %q", got, tt.wantField)
			}
		})
	}
}

func TestMapDBError_NotNullAndCheck(t *testing.T) {
	notNull := MapDBError(&pgconn.PgError{Code: pgerrcode.NotNullViolation, ColumnName: "email"})
	if !IsValidation(notNull) || GetField(notNull) != "email" {
		t.Errorf("not null: code=%v field=%q", GetCode(notNull), GetField(notNull))
	}

	check := MapDBError(&pgconn.PgError{Code: pgerrcode.CheckViolation, ConstraintName: "users_email_check"})
	if !IsValidation(check) {
		t.Errorf("check: code=%v", GetCode(check))
	}
}

func TestMapDBError_UnknownPgError(t *testing.T) {
	err := MapDBError(&pgconn.PgError{Code: pgerrcode.DeadlockDetected})
	if !IsInternal(err) {
		t.Errorf("expected internal, got %v", GetCode(err))
	}
}

func TestMapDBError_StandardError(t *testing.T) {
	orig := errors.New("dial tcp: connection refused")
	if got := MapDBError(orig); got != orig {
		t.Errorf("unrecognized errors should pass through unchanged, got %v", got)
	}
}

func TestInferFieldFromConstraint(t *testing.T) {
	tests := map[string]string{
		"users_email_key":      "email",
		"users_email_unique":   "email",
		"users_lower_idx":      "",
		"users_pkey":           "",
		"users_email_name_key": "",
		"":                     "",
	}
	for in, want := range tests {
		if got := inferFieldFromConstraint(in); got != want {
			t.Errorf("inferFieldFromConstraint(%q) = %q, want %q", in, got, want)
		}
	}
}
