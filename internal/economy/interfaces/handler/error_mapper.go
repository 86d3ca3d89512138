package handler

import (
	"context"
	"errors"

	"Polis/internal/economy/app"
	"Polis/internal/economy/domain"
	"Polis/internal/shared/transport"
	"Polis/modules/kit/errx"
	"Polis/modules/kit/logx"

	"go.uber.org/zap"
)

// bizCodes 把领域拒绝映射到客户端业务码。
var bizCodes = map[errx.Code]int{
	errx.CodeReqParamError:           transport.InvalidParam,
	domain.CodeCityNotFound:          transport.NotFound,
	domain.CodeBuildingNotFound:      transport.NotFound,
	domain.CodeAlreadyExists:         transport.BuildingExists,
	domain.CodeMaxLevelReached:       transport.MaxLevelReached,
	domain.CodeAlreadyQueued:         transport.AlreadyQueued,
	domain.CodeQueueFull:             transport.QueueFull,
	domain.CodePrereqNotMet:          transport.PrereqNotMet,
	domain.CodeInsufficientResources: transport.InsufficientResources,
	domain.CodeInvalidType:           transport.UnknownBuildingType,
}

func mapBizCode(code errx.Code) int {
	if c, ok := bizCodes[code]; ok {
		return c
	}
	return transport.SystemError
}

func mapTechErrToClientCode(err error) int {
	switch {
	case errors.Is(err, errx.ErrTimeout):
		return transport.Timeout
	case errors.Is(err, errx.ErrUnavailable):
		return transport.Unavailable
	default:
		return transport.SystemError
	}
}

// HandleError 返回客户端业务码、提示语与附加数据。系统错误只给通用提示，细节进日志。
func HandleError(ctx context.Context, log logx.Logger, action string, err error) (int, string, any) {
	if reason := app.GetErrorReasonCode(err); reason != "" {
		transport.SetErrorReason(ctx, reason)
	}

	if e, ok := errx.As(err); ok && errx.IsBiz(err) {
		transport.SetErrorReason(ctx, e.CodeText())
		logx.Report(ctx, log, action, err, zap.String("code", e.CodeText()))
		var data any
		if d := e.Data(); len(d) != 0 {
			data = d
		}
		return mapBizCode(e.Code()), e.Msg(), data
	}

	logx.Report(ctx, log, action, err)
	return mapTechErrToClientCode(err), "系统繁忙，请稍后重试", nil
}
