package store

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/expense-tracker/internal/errs"
)

// mapError converts a Firestore error into the errs taxonomy. what names the
// entity for not-found messages.
func mapError(err error, op, what string) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.NotFound:
		return errs.NewNotFoundError(what + " not found")
	case codes.AlreadyExists:
		return errs.NewAlreadyExistsError(what + " already exists")
	default:
		return errs.NewDatabaseError(op, "failed to "+op+" "+what, err)
	}
}
