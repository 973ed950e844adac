package runs

import (
	"context"
	"errors"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/finsightlab/finsight/internal/svc"
	"github.com/finsightlab/finsight/internal/types"
)

// ErrRunNotFound indicates an unknown run id.
var ErrRunNotFound = errors.New("run not found")

type GetRunLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// Fetch a recorded run
func NewGetRunLogic(ctx context.Context, svcCtx *svc.ServiceContext) *GetRunLogic {
	return &GetRunLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *GetRunLogic) GetRun(req *types.GetRunRequest) (*types.GetRunResponse, error) {
	run, ok := l.svcCtx.History.Get(req.RunID)
	if !ok {
		return nil, ErrRunNotFound
	}

	resp := &types.GetRunResponse{
		RunID:     run.RunID,
		RunType:   string(run.Type),
		Context:   run.Context,
		Analysis:  make([]types.AnalysisRow, 0, len(run.Findings)),
		CreatedAt: run.CreatedAt.Format(time.RFC3339),
	}
	for _, f := range run.Findings {
		resp.Analysis = append(resp.Analysis, types.AnalysisRow{
			Dimension: f.Dimension,
			RiskLevel: f.RiskLevel,
			Reason:    f.Reason,
			Metrics:   f.Metrics,
		})
	}
	return resp, nil
}
