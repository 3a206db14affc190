// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"

	deliverycontext "academy/internal/delivery/context"
	domainerrors "academy/internal/domain/errors"
	"academy/internal/domain/repository"
	"academy/internal/errors"
)

// mapStorageError keeps domain errors as they are and turns everything the storage
// layer raises into AccountConflict or AuthInternalError. The original error is only logged.
func mapStorageError(ctx context.Context, logger *slog.Logger, err error, operation string) error {
	if err == nil {
		return nil
	}

	var baseErr *domainerrors.BaseError
	if errors.As(err, &baseErr) {
		return err
	}

	if errors.Is(err, repository.ErrIdentityAlreadyExists) || errors.Is(err, repository.ErrProviderConflict) {
		return domainerrors.ErrAccountConflict.WrapMessage(operation)
	}

	deliverycontext.GetLoggerOrDefault(ctx, logger).Error("Storage failure",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)

	return domainerrors.ErrAuthInternalError.WrapMessage(operation)
}
