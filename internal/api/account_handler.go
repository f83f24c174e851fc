package api

import (
	"net/http"

	"github.com/phrazzld/keystone-api/internal/api/shared"
)

// Me returns the principal the request was authenticated as, rebuilt from
// the security context.
//
// @Summary   Current principal
// @Tags      account
// @Produce   json
// @Security  BearerAuth
// @Success   200  {object}  identity.Principal
// @Failure   401  {object}  shared.ErrorResponse
// @Router    /api/me [get]
func Me(w http.ResponseWriter, r *http.Request) {
	p, ok := getPrincipal(w, r)
	if !ok {
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, p)
}
