package upload

import "greencreditapi/internal/api"

type Handler struct {
	*api.Handler
}
