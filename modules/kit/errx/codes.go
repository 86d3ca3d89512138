package errx

// 跨包统一的系统类错误码。
//
// 业务域错误码（例如 ECONOMY_QUEUE_FULL）由各业务包自行定义，不放在 kit 里。

const (
	// CodeInternal 不可预期的内部错误（兜底）。
	CodeInternal Code = "INTERNAL_ERROR"
	// CodeUnavailable 依赖不可用：DB、Mongo、下游服务、网络。
	CodeUnavailable Code = "SERVICE_UNAVAILABLE"
	// CodeTimeout 请求或依赖调用超时。
	CodeTimeout Code = "TIMEOUT"
	// CodeConflict 并发修改冲突，调用方可以重试。
	CodeConflict Code = "CONCURRENT_CONFLICT"
	// CodeReqParamError 请求参数错误。
	CodeReqParamError Code = "CODE_REQ_PARAM_ERROR"
)

// 系统类哨兵错误，通过 WithData/WithCause 派生，不要直接修改。
var (
	ErrInternal    = NewSys(CodeInternal, "服务器内部错误")
	ErrUnavailable = NewSys(CodeUnavailable, "服务不可用")
	ErrTimeout     = NewSys(CodeTimeout, "请求超时")
	ErrConflict    = NewSys(CodeConflict, "数据已被并发修改")
	ErrReqParamERR = NewBiz(CodeReqParamError, "请求参数错误")
)
