package chat

import (
	"errors"
	"net/http"

	"github.com/finsightlab/finsight/internal/httputil"
	"github.com/finsightlab/finsight/internal/logic/chat"
	"github.com/finsightlab/finsight/internal/svc"
	"github.com/finsightlab/finsight/internal/types"
)

// Fetch a conversation's log and state
func GetConversationHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.GetConversationRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}

		l := chat.NewGetConversationLogic(r.Context(), svcCtx)
		resp, err := l.GetConversation(&req)
		if err != nil {
			if errors.Is(err, chat.ErrConversationNotFound) {
				httputil.NotFound(w, err.Error())
			} else {
				httputil.Error(w, err)
			}
			return
		}
		httputil.OkJSON(w, resp)
	}
}
