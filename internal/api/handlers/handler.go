package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/babylonchain/asset-staking-service/internal/config"
	"github.com/babylonchain/asset-staking-service/internal/services"
	"github.com/babylonchain/asset-staking-service/internal/types"
	"github.com/babylonchain/asset-staking-service/internal/utils"
)

// CallerHeader carries the authenticated address of the caller. It is set by
// the gateway in front of the service.
const CallerHeader = "X-Caller-Address"

type Handler struct {
	config   *config.Config
	services *services.Services
}

type paginationResponse struct {
	NextKey string `json:"next_key"`
}

type PublicResponse[T any] struct {
	Data       T                   `json:"data"`
	Pagination *paginationResponse `json:"pagination,omitempty"`
}

type Result struct {
	Data   interface{}
	Status int
}

// NewResult returns a successful result, with default status code 200
func NewResultWithPagination[T any](data T, pageToken string) *Result {
	res := &PublicResponse[T]{Data: data, Pagination: &paginationResponse{NextKey: pageToken}}
	return &Result{Data: res, Status: http.StatusOK}
}

func NewResult[T any](data T) *Result {
	res := &PublicResponse[T]{Data: data}
	return &Result{Data: res, Status: http.StatusOK}
}

func New(
	ctx context.Context, cfg *config.Config, services *services.Services,
) (*Handler, error) {
	return &Handler{
		config:   cfg,
		services: services,
	}, nil
}

func parseCaller(request *http.Request) (types.Identity, *types.Error) {
	header := request.Header.Get(CallerHeader)
	if header == "" {
		return "", types.NewErrorWithMsg(
			http.StatusUnauthorized, types.Unauthorized, CallerHeader+" header is required",
		)
	}
	caller, err := types.NewIdentity(header)
	if err != nil {
		return "", types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "invalid caller address")
	}
	return caller, nil
}

func parseDepositIdParam(request *http.Request) (uint64, *types.Error) {
	depositId, ok := utils.ParseDepositId(chi.URLParam(request, "id"))
	if !ok {
		return 0, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "invalid deposit id")
	}
	return depositId, nil
}
