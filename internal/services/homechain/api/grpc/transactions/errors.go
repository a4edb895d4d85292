package transactions

import (
	"context"
	"errors"

	apperrors "github.com/louisbranch/homechain/internal/platform/errors"
	"github.com/louisbranch/homechain/internal/platform/errors/i18n"
	"github.com/louisbranch/homechain/internal/platform/requestctx"
	"github.com/louisbranch/homechain/internal/services/homechain/domain/command"
	"github.com/louisbranch/homechain/internal/services/homechain/domain/workflow"
	"google.golang.org/grpc/status"
)

// domainError classifies a workflow error under an application error code.
func domainError(err error) *apperrors.Error {
	var (
		precondition *workflow.PreconditionError
		notFound     *workflow.NotFoundError
		storeErr     *workflow.StoreError
	)
	switch {
	case errors.As(err, &precondition):
		return apperrors.WithMetadata(apperrors.Code(precondition.Code), precondition.Reason, precondition.Metadata)
	case errors.As(err, &notFound):
		return apperrors.WithMetadata(apperrors.CodeNotFound, notFound.Error(), map[string]string{
			"entity_type": notFound.EntityType,
			"id":          notFound.ID,
		})
	case errors.Is(err, command.ErrTypeRequired), errors.Is(err, command.ErrTypeUnknown):
		return apperrors.Wrap(apperrors.CodeTransactionTypeUnknown, err.Error(), err)
	case errors.Is(err, command.ErrActorTypeInvalid), errors.Is(err, command.ErrActorIDRequired):
		return apperrors.Wrap(apperrors.CodeTransactionActorInvalid, err.Error(), err)
	case errors.Is(err, command.ErrPayloadInvalid):
		return apperrors.Wrap(apperrors.CodeTransactionPayloadInvalid, err.Error(), err)
	case errors.As(err, &storeErr):
		return apperrors.Wrap(apperrors.CodeStoreUnavailable, err.Error(), err)
	default:
		return apperrors.From(err)
	}
}

// toStatus renders err as a gRPC status localized for the caller.
func toStatus(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return domainError(err).Localize(i18n.GetCatalog(requestctx.LocaleFromContext(ctx)))
}
