package httpapi

import (
	"sync/atomic"

	"jobfeed-engine/internal/config"
	"jobfeed-engine/internal/events"
	"jobfeed-engine/internal/service"
)

type Deps struct {
	Engine *service.Engine
	Hub    *events.Hub

	// Atomic stores
	CfgVal       *atomic.Value // stores config.Config
	IngestStatus *atomic.Value // stores httpapi.IngestStatus

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)
}
