// Package auth 授权判定实现
// 身份认证由接入层（网关/中间件）完成，这里只判定已认证的
// 操作发起者是否持有目标主体的权限。
package auth

import (
	"context"
	"fmt"

	"github.com/wyfcoding/tokenledger/internal/ledger/domain"
)

// ActorAuthorizer 基于已认证身份的授权判定
// 当前模型：一个账户只持有自身主体的权限。
type ActorAuthorizer struct{}

// NewActorAuthorizer 创建授权判定器
func NewActorAuthorizer() domain.Authorizer {
	return ActorAuthorizer{}
}

// Authorize 判定 actor 是否持有 principal 的权限
func (ActorAuthorizer) Authorize(_ context.Context, actor, principal string) error {
	if actor == "" {
		return fmt.Errorf("%w: missing caller identity", domain.ErrUnauthorized)
	}
	if actor != principal {
		return fmt.Errorf("%w: %s lacks authority of %s", domain.ErrUnauthorized, actor, principal)
	}
	return nil
}
