package chat

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/finsightlab/finsight/internal/svc"
	"github.com/finsightlab/finsight/internal/types"
)

type TurnLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// Process one chat turn
func NewTurnLogic(ctx context.Context, svcCtx *svc.ServiceContext) *TurnLogic {
	return &TurnLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *TurnLogic) Turn(req *types.TurnRequest) (*types.TurnResponse, error) {
	resp, err := l.svcCtx.Orchestrator.Turn(l.ctx, *req)
	if err != nil {
		l.Errorf("turn failed: %v", err)
		return nil, err
	}
	return &resp, nil
}
