// Package domain 外部协作者接口
// 授权与时钟以依赖注入的方式进入应用层，核心逻辑不依赖真实身份系统与墙钟。
package domain

import (
	"context"
	"time"
)

// Authorizer 授权判定
// 判定操作发起者 actor 是否持有主体 principal 的权限；
// 不持有时返回 ErrUnauthorized。每个变更操作最先执行该检查。
type Authorizer interface {
	Authorize(ctx context.Context, actor, principal string) error
}

// Clock 当前时间源（单调不减）
type Clock interface {
	Now() time.Time
}

// SystemClock 墙钟实现
type SystemClock struct{}

// Now 当前时间
func (SystemClock) Now() time.Time {
	return time.Now()
}
