package transport

// BizCode 表示业务码的强类型封装，用于在日志上下文中减少误传风险。
type BizCode int

// 客户端业务码，写在响应体 {code,msg,data} 的 code 里。
const (
	OK           = 0
	InvalidParam = 1
	Unauthorized = 2
	Forbidden    = 3
	NotFound     = 4

	// 入队前置条件，按检查顺序编号。
	BuildingExists        = 101
	MaxLevelReached       = 102
	AlreadyQueued         = 103
	QueueFull             = 104
	PrereqNotMet          = 105
	InsufficientResources = 106
	UnknownBuildingType   = 107

	SystemError = 500
	Timeout     = 504
	Unavailable = 503
)
