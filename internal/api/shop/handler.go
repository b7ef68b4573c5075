package shop

import (
	"net/http"

	"greencreditapi/internal/api"
	"greencreditapi/pkg/config"
	"greencreditapi/pkg/utils"

	"github.com/google/uuid"
)

type Handler struct {
	*api.Handler
}

// lockCart makes the caller the only writer of uid's cart. It responds and
// returns false when another request holds the cart.
func (h *Handler) lockCart(resParams *api.ResParams, uid string) (string, bool) {

	owner := uuid.NewString()
	failed, err := utils.LockKeys(h.RedisCli, resParams.R.Context(), []string{"cart:" + uid}, owner, config.CHECKOUT_MUTEX_TTL)
	if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return "", false
	}
	if len(failed) > 0 {
		resParams.ResData = api.Flag("cartBusy")
		resParams.Code = http.StatusConflict
		h.Res(resParams)
		return "", false
	}

	return owner, true

}
