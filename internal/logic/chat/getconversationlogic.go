package chat

import (
	"context"
	"errors"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/finsightlab/finsight/internal/svc"
	"github.com/finsightlab/finsight/internal/types"
)

// ErrConversationNotFound indicates an unknown conversation id.
var ErrConversationNotFound = errors.New("conversation not found")

type GetConversationLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// Fetch a conversation's log and state
func NewGetConversationLogic(ctx context.Context, svcCtx *svc.ServiceContext) *GetConversationLogic {
	return &GetConversationLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *GetConversationLogic) GetConversation(req *types.GetConversationRequest) (*types.GetConversationResponse, error) {
	view, ok := l.svcCtx.Store.View(req.ConversationID)
	if !ok {
		return nil, ErrConversationNotFound
	}

	resp := &types.GetConversationResponse{
		ConversationID:       view.ConversationID,
		Turns:                make([]types.ConversationTurn, 0, len(view.Turns)),
		LastRunID:            view.LastRunID,
		LastRunType:          string(view.LastRunType),
		ClarificationAttempt: view.ClarificationAttempt,
	}
	for _, t := range view.Turns {
		resp.Turns = append(resp.Turns, types.ConversationTurn{
			Role:        t.Role,
			Content:     t.Content,
			MessageType: t.MessageType,
		})
	}
	if view.Pending != nil {
		resp.PendingSchema = view.Pending.ExpectedSchema
	}
	return resp, nil
}
