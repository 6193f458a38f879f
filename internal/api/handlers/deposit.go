package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/babylonchain/asset-staking-service/internal/types"
)

type StakeRequestPayload struct {
	AssetCollection string  `json:"asset_collection"`
	AssetId         *uint64 `json:"asset_id"`
}

func parseStakePayload(request *http.Request) (types.Identity, uint64, *types.Error) {
	payload := &StakeRequestPayload{}
	if err := json.NewDecoder(request.Body).Decode(payload); err != nil {
		return "", 0, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "invalid request payload")
	}
	collection, err := types.NewIdentity(payload.AssetCollection)
	if err != nil {
		return "", 0, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "invalid asset_collection")
	}
	if payload.AssetId == nil {
		return "", 0, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "asset_id is required")
	}
	return collection, *payload.AssetId, nil
}

// Stake @Summary Stake an asset
// @Description Transfers an asset of the caller into custody and opens a deposit
// @Accept json
// @Produce json
// @Param X-Caller-Address header string true "Caller identity"
// @Param payload body handlers.StakeRequestPayload true "Asset to stake"
// @Success 201 {object} PublicResponse[services.DepositPublic] "Created deposit"
// @Failure 400 {object} types.Error "Error: Bad Request"
// @Failure 403 {object} types.Error "Error: Forbidden"
// @Router /v1/deposits [post]
func (h *Handler) Stake(request *http.Request) (*Result, *types.Error) {
	caller, err := parseCaller(request)
	if err != nil {
		return nil, err
	}
	collection, assetId, err := parseStakePayload(request)
	if err != nil {
		return nil, err
	}
	deposit, err := h.services.Stake(request.Context(), caller, collection, assetId)
	if err != nil {
		return nil, err
	}
	result := NewResult(deposit)
	result.Status = http.StatusCreated
	return result, nil
}

// GetDeposit @Summary Get a deposit
// @Description Retrieves a deposit by id
// @Produce json
// @Param id path integer true "Deposit id"
// @Success 200 {object} PublicResponse[services.DepositPublic] "Deposit"
// @Failure 400 {object} types.Error "Error: Bad Request"
// @Router /v1/deposits/{id} [get]
func (h *Handler) GetDeposit(request *http.Request) (*Result, *types.Error) {
	depositId, err := parseDepositIdParam(request)
	if err != nil {
		return nil, err
	}
	deposit, err := h.services.GetDeposit(request.Context(), depositId)
	if err != nil {
		return nil, err
	}
	return NewResult(deposit), nil
}

// PreviewRewards @Summary Preview rewards of a deposit
// @Description Returns the rewards a claim would settle now. Any caller may ask.
// @Produce json
// @Param id path integer true "Deposit id"
// @Success 200 {object} PublicResponse[services.RewardsPublic] "Claimable rewards"
// @Failure 400 {object} types.Error "Error: Bad Request"
// @Router /v1/deposits/{id}/rewards [get]
func (h *Handler) PreviewRewards(request *http.Request) (*Result, *types.Error) {
	depositId, err := parseDepositIdParam(request)
	if err != nil {
		return nil, err
	}
	rewards, err := h.services.PreviewRewards(request.Context(), depositId)
	if err != nil {
		return nil, err
	}
	return NewResult(rewards), nil
}

// Unstake @Summary Unstake a deposit
// @Description Stops reward accrual and starts the unbonding period
// @Produce json
// @Param X-Caller-Address header string true "Caller identity"
// @Param id path integer true "Deposit id"
// @Success 200 {object} PublicResponse[services.DepositPublic] "Unbonding deposit"
// @Failure 400 {object} types.Error "Error: Bad Request"
// @Failure 403 {object} types.Error "Error: Forbidden"
// @Router /v1/deposits/{id}/unstake [post]
func (h *Handler) Unstake(request *http.Request) (*Result, *types.Error) {
	caller, err := parseCaller(request)
	if err != nil {
		return nil, err
	}
	depositId, err := parseDepositIdParam(request)
	if err != nil {
		return nil, err
	}
	deposit, err := h.services.Unstake(request.Context(), caller, depositId)
	if err != nil {
		return nil, err
	}
	return NewResult(deposit), nil
}

// ClaimRewards @Summary Claim rewards of a deposit
// @Description Settles the accrued rewards and mints them to the depositor
// @Produce json
// @Param X-Caller-Address header string true "Caller identity"
// @Param id path integer true "Deposit id"
// @Success 200 {object} PublicResponse[services.RewardsPublic] "Settled rewards"
// @Failure 400 {object} types.Error "Error: Bad Request"
// @Failure 403 {object} types.Error "Error: Forbidden"
// @Router /v1/deposits/{id}/claim [post]
func (h *Handler) ClaimRewards(request *http.Request) (*Result, *types.Error) {
	caller, err := parseCaller(request)
	if err != nil {
		return nil, err
	}
	depositId, err := parseDepositIdParam(request)
	if err != nil {
		return nil, err
	}
	rewards, err := h.services.ClaimRewards(request.Context(), caller, depositId)
	if err != nil {
		return nil, err
	}
	return NewResult(rewards), nil
}

// Withdraw @Summary Withdraw an unbonded asset
// @Description Returns the asset to the depositor once the unbonding period has passed
// @Produce json
// @Param X-Caller-Address header string true "Caller identity"
// @Param id path integer true "Deposit id"
// @Success 200 {object} PublicResponse[services.DepositPublic] "Withdrawn deposit"
// @Failure 400 {object} types.Error "Error: Bad Request"
// @Failure 403 {object} types.Error "Error: Forbidden"
// @Router /v1/deposits/{id}/withdraw [post]
func (h *Handler) Withdraw(request *http.Request) (*Result, *types.Error) {
	caller, err := parseCaller(request)
	if err != nil {
		return nil, err
	}
	depositId, err := parseDepositIdParam(request)
	if err != nil {
		return nil, err
	}
	deposit, err := h.services.Withdraw(request.Context(), caller, depositId)
	if err != nil {
		return nil, err
	}
	return NewResult(deposit), nil
}

// GetDepositorDeposits @Summary Get deposits of a depositor
// @Description Retrieves deposits opened by a depositor
// @Produce json
// @Param depositor query string true "Depositor identity"
// @Param pagination_key query string false "Pagination key to fetch the next page of deposits"
// @Success 200 {object} PublicResponse[[]services.DepositPublic]{array} "List of deposits and pagination token"
// @Failure 400 {object} types.Error "Error: Bad Request"
// @Router /v1/depositor/deposits [get]
func (h *Handler) GetDepositorDeposits(request *http.Request) (*Result, *types.Error) {
	depositor, parseErr := types.NewIdentity(request.URL.Query().Get("depositor"))
	if parseErr != nil {
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "invalid depositor")
	}
	paginationKey := request.URL.Query().Get("pagination_key")

	deposits, newPaginationKey, err := h.services.DepositsByDepositor(request.Context(), depositor, paginationKey)
	if err != nil {
		return nil, err
	}
	return NewResultWithPagination(deposits, newPaginationKey), nil
}
