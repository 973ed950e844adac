package handler

import (
	"net/http"

	"github.com/finsightlab/finsight/internal/httputil"
	"github.com/finsightlab/finsight/internal/svc"
)

// Liveness probe
func HealthCheckHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.OkJSON(w, map[string]string{
			"status":  "ok",
			"service": svcCtx.Config.Name,
		})
	}
}
