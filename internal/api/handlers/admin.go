package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/babylonchain/asset-staking-service/internal/types"
)

type SetConfigRequestPayload struct {
	// Decimal string
	Value string `json:"value"`
}

type UpgradeRequestPayload struct {
	LogicVersion  uint32 `json:"logic_version"`
	NewController string `json:"new_controller"`
}

// GetStakeConfig @Summary Get the stake config
// @Produce json
// @Success 200 {object} PublicResponse[services.StakeConfigPublic] "Stake config"
// @Router /v1/config [get]
func (h *Handler) GetStakeConfig(request *http.Request) (*Result, *types.Error) {
	cfg, err := h.services.GetStakeConfig(request.Context())
	if err != nil {
		return nil, err
	}
	return NewResult(cfg), nil
}

// SetStakeConfig @Summary Update a stake config knob
// @Description Controller only. Knob is one of the tunable reward or unbonding parameters.
// @Accept json
// @Produce json
// @Param X-Caller-Address header string true "Caller identity"
// @Param knob path string true "Config knob"
// @Param payload body handlers.SetConfigRequestPayload true "New value"
// @Success 200 {object} PublicResponse[services.StakeConfigPublic] "Updated stake config"
// @Failure 400 {object} types.Error "Error: Bad Request"
// @Failure 403 {object} types.Error "Error: Forbidden"
// @Router /v1/admin/config/{knob} [put]
func (h *Handler) SetStakeConfig(request *http.Request) (*Result, *types.Error) {
	caller, err := parseCaller(request)
	if err != nil {
		return nil, err
	}
	payload := &SetConfigRequestPayload{}
	if decodeErr := json.NewDecoder(request.Body).Decode(payload); decodeErr != nil || payload.Value == "" {
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "invalid request payload")
	}
	cfg, err := h.services.SetStakeConfig(request.Context(), caller, chi.URLParam(request, "knob"), payload.Value)
	if err != nil {
		return nil, err
	}
	return NewResult(cfg), nil
}

// Pause @Summary Pause staking
// @Produce json
// @Param X-Caller-Address header string true "Caller identity"
// @Success 200 {object} PublicResponse[services.StakeConfigPublic] "Updated stake config"
// @Failure 403 {object} types.Error "Error: Forbidden"
// @Router /v1/admin/pause [post]
func (h *Handler) Pause(request *http.Request) (*Result, *types.Error) {
	caller, err := parseCaller(request)
	if err != nil {
		return nil, err
	}
	cfg, err := h.services.Pause(request.Context(), caller)
	if err != nil {
		return nil, err
	}
	return NewResult(cfg), nil
}

// Unpause @Summary Unpause staking
// @Produce json
// @Param X-Caller-Address header string true "Caller identity"
// @Success 200 {object} PublicResponse[services.StakeConfigPublic] "Updated stake config"
// @Failure 403 {object} types.Error "Error: Forbidden"
// @Router /v1/admin/unpause [post]
func (h *Handler) Unpause(request *http.Request) (*Result, *types.Error) {
	caller, err := parseCaller(request)
	if err != nil {
		return nil, err
	}
	cfg, err := h.services.Unpause(request.Context(), caller)
	if err != nil {
		return nil, err
	}
	return NewResult(cfg), nil
}

// AuthorizeUpgrade @Summary Authorize a logic upgrade
// @Description Controller only. Records the new logic version and hands control to the new controller.
// @Accept json
// @Produce json
// @Param X-Caller-Address header string true "Caller identity"
// @Param payload body handlers.UpgradeRequestPayload true "Upgrade"
// @Success 200 {object} PublicResponse[services.StakeConfigPublic] "Updated stake config"
// @Failure 400 {object} types.Error "Error: Bad Request"
// @Failure 403 {object} types.Error "Error: Forbidden"
// @Router /v1/admin/upgrade [post]
func (h *Handler) AuthorizeUpgrade(request *http.Request) (*Result, *types.Error) {
	caller, err := parseCaller(request)
	if err != nil {
		return nil, err
	}
	payload := &UpgradeRequestPayload{}
	if decodeErr := json.NewDecoder(request.Body).Decode(payload); decodeErr != nil {
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "invalid request payload")
	}
	newController, parseErr := types.NewIdentity(payload.NewController)
	if parseErr != nil {
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "invalid new_controller")
	}
	cfg, err := h.services.AuthorizeUpgrade(request.Context(), caller, payload.LogicVersion, newController)
	if err != nil {
		return nil, err
	}
	return NewResult(cfg), nil
}
