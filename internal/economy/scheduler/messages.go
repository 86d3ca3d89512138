package scheduler

import "Polis/internal/economy/app/model"

// scheduledTick 由 ticker 协程发给自己，不影响 ReceiveTimeout。
type scheduledTick struct{}

func (scheduledTick) NotInfluenceReceiveTimeout() {}

type triggerRequest struct {
	Trigger model.Trigger
}

type triggerResult struct {
	Report model.TickReport
	Err    error
}

type tickDone struct {
	Report model.TickReport
	Err    error
}

type statusRequest struct{}
