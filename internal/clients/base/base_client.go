package baseclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/babylonchain/asset-staking-service/internal/observability/metrics"
	"github.com/babylonchain/asset-staking-service/internal/types"
)

var ALLOWED_METHODS = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}

const ControllerHeader = "X-Controller"

type controllerContextKey struct{}

// WithController attaches the identity the engine presents to collaborators.
func WithController(ctx context.Context, controller types.Identity) context.Context {
	return context.WithValue(ctx, controllerContextKey{}, controller)
}

func ControllerFromContext(ctx context.Context) (types.Identity, bool) {
	controller, ok := ctx.Value(controllerContextKey{}).(types.Identity)
	return controller, ok
}

type BaseClient interface {
	GetBaseURL() string
	GetDefaultRequestTimeout() int
	GetHttpClient() *http.Client
	GetCircuitBreaker() *gobreaker.CircuitBreaker
	GetName() string
}

type BaseClientOptions struct {
	Timeout int
	Path    string
	Headers map[string]string
}

func isAllowedMethods(method string) bool {
	for _, allowedMethod := range ALLOWED_METHODS {
		if method == allowedMethod {
			return true
		}
	}
	return false
}

// NewCircuitBreaker opens after a run of failed requests so that calls to a
// collaborator that is down fail fast instead of waiting for the timeout.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests > 10 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				log.Warn().Str("client", name).Msg("collaborator seems down, stop allowing requests")
			}
			if from == gobreaker.StateOpen && to == gobreaker.StateHalfOpen {
				log.Info().Str("client", name).Msg("checking collaborator status")
			}
			if from == gobreaker.StateHalfOpen && to == gobreaker.StateClosed {
				log.Info().Str("client", name).Msg("collaborator seems ok, restart allowing requests")
			}
		},
	})
}

// clientError is a 4xx answer. It is returned through the breaker as a
// success so that rejected requests do not trip it.
type clientError struct {
	statusCode int
}

func SendRequest[I any, R any](
	ctx context.Context, client BaseClient, method string, opts *BaseClientOptions, input *I,
) (*R, *types.Error) {
	if !isAllowedMethods(method) {
		return nil, types.NewInternalServiceError(fmt.Errorf("method %s is not allowed", method))
	}
	url := fmt.Sprintf("%s%s", client.GetBaseURL(), opts.Path)
	timeout := client.GetDefaultRequestTimeout()
	// If timeout is set, use it instead of the default
	if opts.Timeout != 0 {
		timeout = opts.Timeout
	}
	// Set a timeout for the request
	ctxWithTimeout, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Millisecond)
	defer cancel()

	var req *http.Request
	var requestError error
	if input != nil && (method == http.MethodPost || method == http.MethodPut) {
		body, err := json.Marshal(input)
		if err != nil {
			return nil, types.NewErrorWithMsg(
				http.StatusInternalServerError,
				types.InternalServiceError,
				"failed to marshal request body",
			)
		}
		req, requestError = http.NewRequestWithContext(ctxWithTimeout, method, url, bytes.NewBuffer(body))
	} else {
		req, requestError = http.NewRequestWithContext(ctxWithTimeout, method, url, nil)
	}
	if requestError != nil {
		return nil, types.NewErrorWithMsg(
			http.StatusInternalServerError, types.InternalServiceError, requestError.Error(),
		)
	}
	req.Header.Set("Content-Type", "application/json")
	if controller, ok := ControllerFromContext(ctx); ok {
		req.Header.Set(ControllerHeader, controller.String())
	}
	// Set headers
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	timer := metrics.StartClientRequestDurationTimer(client.GetName(), opts.Path)
	result, err := client.GetCircuitBreaker().Execute(func() (interface{}, error) {
		resp, err := client.GetHttpClient().Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("internal server error when calling %s: %d", url, resp.StatusCode)
		} else if resp.StatusCode >= http.StatusBadRequest {
			return &clientError{statusCode: resp.StatusCode}, nil
		}

		var output R
		if resp.StatusCode == http.StatusNoContent {
			return &output, nil
		}
		if err := json.NewDecoder(resp.Body).Decode(&output); err != nil {
			return nil, fmt.Errorf("failed to decode response from %s: %w", url, err)
		}
		return &output, nil
	})
	if err != nil {
		timer(http.StatusInternalServerError)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, types.NewErrorWithMsg(
				http.StatusServiceUnavailable,
				types.ServiceUnavailable,
				fmt.Sprintf("%s is unavailable", client.GetName()),
			)
		}
		if errors.Is(ctxWithTimeout.Err(), context.DeadlineExceeded) {
			return nil, types.NewErrorWithMsg(
				http.StatusRequestTimeout,
				types.RequestTimeout,
				fmt.Sprintf("request timeout after %d ms at %s", timeout, url),
			)
		}
		log.Ctx(ctx).Error().Err(err).Msgf("failed to send request to %s", url)
		return nil, types.NewErrorWithMsg(
			http.StatusInternalServerError,
			types.InternalServiceError,
			fmt.Sprintf("failed to send request to %s", url),
		)
	}

	if ce, ok := result.(*clientError); ok {
		timer(ce.statusCode)
		return nil, types.NewErrorWithMsg(
			ce.statusCode,
			types.BadRequest,
			fmt.Sprintf("client error when calling %s", url),
		)
	}
	timer(http.StatusOK)
	return result.(*R), nil
}
