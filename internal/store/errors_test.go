package store

import (
	"errors"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/expense-tracker/internal/errs"
)

func TestMapError(t *testing.T) {
	if mapError(nil, "read", "user") != nil {
		t.Fatalf("nil error should stay nil")
	}

	var nfErr *errs.NotFoundError
	if err := mapError(status.Error(codes.NotFound, "missing"), "read", "user"); !errors.As(err, &nfErr) {
		t.Fatalf("expected not found, got %v", err)
	} else if nfErr.Message != "user not found" {
		t.Fatalf("message = %q", nfErr.Message)
	}

	var aeErr *errs.AlreadyExistsError
	if err := mapError(status.Error(codes.AlreadyExists, "dup"), "create", "user"); !errors.As(err, &aeErr) {
		t.Fatalf("expected already exists, got %v", err)
	}

	cause := status.Error(codes.Unavailable, "down")
	err := mapError(cause, "update", "notification")
	var dbErr *errs.DatabaseError
	if !errors.As(err, &dbErr) {
		t.Fatalf("expected database error, got %v", err)
	}
	if dbErr.Operation != "update" || !errors.Is(err, cause) {
		t.Fatalf("database error lost context: %+v", dbErr)
	}
}
