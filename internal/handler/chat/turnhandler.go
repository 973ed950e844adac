package chat

import (
	"net/http"

	"github.com/finsightlab/finsight/internal/httputil"
	"github.com/finsightlab/finsight/internal/logic/chat"
	"github.com/finsightlab/finsight/internal/svc"
	"github.com/finsightlab/finsight/internal/types"
)

// Process one chat turn
func TurnHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.TurnRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}

		l := chat.NewTurnLogic(r.Context(), svcCtx)
		resp, err := l.Turn(&req)
		if err != nil {
			httputil.Error(w, err)
		} else {
			httputil.OkJSON(w, resp)
		}
	}
}
