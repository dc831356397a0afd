package handler

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dtroode/podkeeper/internal/model"
)

func handleError(err error) error {
	var code codes.Code
	switch {
	case errors.Is(err, model.ErrNameCollision), errors.Is(err, model.ErrAlreadyExists):
		code = codes.AlreadyExists
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrAddressing):
		code = codes.InvalidArgument
	case errors.Is(err, model.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, model.ErrNotEmpty):
		code = codes.FailedPrecondition
	case errors.Is(err, model.ErrCorruptMetadata):
		code = codes.DataLoss
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, model.ErrRemote):
		code = codes.Unavailable
	default:
		return status.Error(codes.Internal, "internal server error")
	}
	return status.Error(code, model.Reason(err))
}

func unauthenticated() error {
	return status.Error(codes.Unauthenticated, "session not found")
}
