package handler

import (
	"net/http"

	"github.com/Temutjin2k/driver-presence/internal/domain/types"
	"github.com/Temutjin2k/driver-presence/pkg/logger"
	wrap "github.com/Temutjin2k/driver-presence/pkg/logger/wrapper"
)

// ChannelStater reports the realtime channel state. Nil in reporter mode.
type ChannelStater interface {
	State() types.ChannelState
}

type Health struct {
	serviceName string
	mode        types.ServiceMode
	channel     ChannelStater
	log         logger.Logger
}

func NewHealth(serviceName string, mode types.ServiceMode, channel ChannelStater, log logger.Logger) *Health {
	return &Health{
		serviceName: serviceName,
		mode:        mode,
		channel:     channel,
		log:         log,
	}
}

// HealthCheck godoc
// @Summary      Health Check
// @Description  Returns the health status of the agent
// @Tags         Health
// @Produce      json
// @Success      200  {object}  map[string]any
// @Router       /health [get]
func (a *Health) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "health_check")

	info := map[string]string{
		"service-name": a.serviceName,
		"mode":         string(a.mode),
	}
	if a.channel != nil {
		info["realtime"] = string(a.channel.State())
	}

	response := envelope{
		"status":      "available",
		"system_info": info,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		a.log.Error(ctx, "healthcheck", err)
		return
	}
}
