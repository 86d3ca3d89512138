package domain

import (
	"Polis/internal/shared/gameconfig/building"
	"Polis/modules/kit/errx"
)

// Code 是经济域错误码。
//
// 约定：
// - 领域层只表达“是什么错”（code）和业务上下文（data）
// - cause 只用于溯源，不参与对外语义
type Code = errx.Code

const (
	CodeCityNotFound          Code = "ECONOMY_CITY_NOT_FOUND"
	CodeBuildingNotFound      Code = "ECONOMY_BUILDING_NOT_FOUND"
	CodeAlreadyExists         Code = "ECONOMY_BUILDING_EXISTS"
	CodeAlreadyQueued         Code = "ECONOMY_ALREADY_QUEUED"
	CodeQueueFull             Code = "ECONOMY_QUEUE_FULL"
	CodePrereqNotMet          Code = "ECONOMY_PREREQ_NOT_MET"
	CodeInsufficientResources Code = "ECONOMY_INSUFFICIENT_RESOURCES"
	CodeMaxLevelReached       Code = "ECONOMY_MAX_LEVEL_REACHED"
	CodeInvalidType           Code = building.CodeUnknownBuildingType
	// CodeStaleTransition 表示状态迁移的前置状态已被其他 tick 改掉。
	CodeStaleTransition Code = "ECONOMY_STALE_TRANSITION"
	// CodeSystemUnavailable 复用 kit 的统一系统码。
	CodeSystemUnavailable Code = errx.CodeUnavailable
)

type Error = errx.Error

var (
	ErrCityNotFound          = errx.NewBiz(CodeCityNotFound, "城市不存在")
	ErrBuildingNotFound      = errx.NewBiz(CodeBuildingNotFound, "建筑不存在")
	ErrAlreadyExists         = errx.NewBiz(CodeAlreadyExists, "该建筑已存在")
	ErrAlreadyQueued         = errx.NewBiz(CodeAlreadyQueued, "该建筑已在建造队列中")
	ErrQueueFull             = errx.NewBiz(CodeQueueFull, "建造队列已满")
	ErrPrereqNotMet          = errx.NewBiz(CodePrereqNotMet, "前置建筑等级不足")
	ErrInsufficientResources = errx.NewBiz(CodeInsufficientResources, "资源不足")
	ErrMaxLevelReached       = errx.NewBiz(CodeMaxLevelReached, "建筑已达最高等级")
	ErrInvalidType           = building.ErrUnknownBuildingType
	ErrStaleTransition       = errx.NewBiz(CodeStaleTransition, "队列状态已变化")
	ErrSystemUnavailable     = errx.ErrUnavailable
)
