package app

type Reason struct {
	Code    string
	Message string
}

func (r Reason) ReasonCode() string {
	return r.Code
}

func NewReason(c, m string) Reason {
	return Reason{Code: c, Message: m}
}

var (
	// 技术错误 reason，用于日志与排障。
	ReasonCityRepoUnavailable  = NewReason("CITY_REPO_UNAVAILABLE", "城市存储不可用")
	ReasonQueueRepoUnavailable = NewReason("QUEUE_REPO_UNAVAILABLE", "建造队列存储不可用")
	ReasonAdmissionTxFail      = NewReason("ADMISSION_TX_FAIL", "入队事务失败")
	ReasonFinalizeTxFail       = NewReason("FINALIZE_TX_FAIL", "队列项结算事务失败")
	ReasonAccrualWriteFail     = NewReason("ACCRUAL_WRITE_FAIL", "资源结算写入失败")
	ReasonTickJournalWriteFail = NewReason("TICK_JOURNAL_WRITE_FAIL", "tick 日志写入失败")
	ReasonSeedFail             = NewReason("SEED_FAIL", "初始城市创建失败")
)
