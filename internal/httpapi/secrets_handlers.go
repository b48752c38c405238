package httpapi

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"jobfeed-engine/internal/config"
	"jobfeed-engine/internal/secrets"
)

type SecretsHandler struct {
	CfgVal *atomic.Value // stores config.Config
}

type setActorTokenReq struct {
	Token string `json:"token"`
}

func (h SecretsHandler) SetActorToken(w http.ResponseWriter, r *http.Request) {
	var req setActorTokenReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	cfg := h.CfgVal.Load().(config.Config)
	if err := secrets.SetActorToken(cfg.Actor.TokenAccount, req.Token); err != nil {
		http.Error(w, "failed to store token: "+err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
