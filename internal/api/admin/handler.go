package admin

import "greencreditapi/internal/api"

type Handler struct {
	*api.Handler
}
