package runs

import (
	"errors"
	"net/http"

	"github.com/finsightlab/finsight/internal/httputil"
	"github.com/finsightlab/finsight/internal/logic/runs"
	"github.com/finsightlab/finsight/internal/svc"
	"github.com/finsightlab/finsight/internal/types"
)

// Fetch a recorded run
func GetRunHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.GetRunRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}

		l := runs.NewGetRunLogic(r.Context(), svcCtx)
		resp, err := l.GetRun(&req)
		if err != nil {
			if errors.Is(err, runs.ErrRunNotFound) {
				httputil.NotFound(w, err.Error())
			} else {
				httputil.Error(w, err)
			}
			return
		}
		httputil.OkJSON(w, resp)
	}
}
