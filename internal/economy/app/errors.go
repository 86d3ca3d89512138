package app

import "Polis/modules/kit/errx"

// Code 表示应用层错误码。业务拒绝直接复用 domain 的哨兵，这里只放系统类。
type Code = errx.Code

const (
	CodeInternalServer Code = errx.CodeInternal
	CodeUnavailable    Code = errx.CodeUnavailable
)

type Error = errx.Error

// Wrap 创建系统类错误并挂载 cause。
func Wrap(code Code, msg string, cause error) *Error {
	return errx.NewSys(code, msg).WithCause(cause)
}

var (
	ErrInternalServer = errx.ErrInternal
	ErrUnavailable    = errx.ErrUnavailable
	ErrReqParamERR    = errx.ErrReqParamERR
)

// GetErrorReasonCode 读取错误链上的 reason，没有时返回空串。
func GetErrorReasonCode(err error) string {
	if e, ok := errx.As(err); ok {
		return e.Reason()
	}
	return ""
}

// sysErr 把存储层错误收敛成对外的 ErrUnavailable，业务拒绝原样返回。
func sysErr(reason Reason, err error) error {
	if err == nil {
		return nil
	}
	if errx.IsBiz(err) {
		return err
	}
	return ErrUnavailable.WithReason(reason).WithCause(err)
}
