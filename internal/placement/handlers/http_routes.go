package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	healthzPath     = "/healthz"
	requestIDHeader = "X-Request-ID"

	// maxBodyBytes caps request bodies read by the gateway.
	maxBodyBytes = 1 << 20
)

var errBodyTooLarge = errors.New("request body too large")

// registerRoutes binds every operation's HTTP route on mux. Requests are
// forwarded to the gRPC endpoint behind conn.
func registerRoutes(mux *runtime.ServeMux, conn grpc.ClientConnInterface, logger *zap.Logger) error {
	for _, op := range operations {
		if err := mux.HandlePath(op.method, op.path, gatewayHandler(op, conn, logger)); err != nil {
			return fmt.Errorf("register route %s %s: %w", op.method, op.path, err)
		}
	}
	return nil
}

func gatewayHandler(op operation, conn grpc.ClientConnInterface, logger *zap.Logger) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
		in, err := requestStruct(w, r, pathParams)
		if errors.Is(err, errBodyTooLarge) {
			writeErrorBody(w, http.StatusRequestEntityTooLarge, errorBody{Code: "RequestEntityTooLarge", Message: err.Error()})
			return
		}
		if err != nil {
			writeError(w, status.Error(codes.InvalidArgument, err.Error()))
			return
		}

		ctx := r.Context()
		if authz := r.Header.Get("Authorization"); authz != "" {
			ctx = metadata.AppendToOutgoingContext(ctx, "authorization", authz)
		}

		out := new(structpb.Struct)
		if err := conn.Invoke(ctx, FullMethod(op.name), in, out); err != nil {
			writeError(w, err)
			return
		}

		body, err := structToJSON(out)
		if err != nil {
			logger.Error("Failed to encode response", zap.String("method", op.name), zap.Error(err))
			writeError(w, status.Error(codes.Internal, "internal server error"))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}
}

// requestStruct merges the JSON body and the numeric path parameters into
// one request object. Bodies over maxBodyBytes are rejected.
func requestStruct(w http.ResponseWriter, r *http.Request, pathParams map[string]string) (*structpb.Struct, error) {
	fields := map[string]interface{}{}
	if r.Body != nil {
		raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, fmt.Errorf("%w: limit is %d bytes", errBodyTooLarge, tooLarge.Limit)
			}
			return nil, fmt.Errorf("read body: %w", err)
		}
		if len(strings.TrimSpace(string(raw))) > 0 {
			if err := json.Unmarshal(raw, &fields); err != nil {
				return nil, fmt.Errorf("invalid JSON body: %w", err)
			}
		}
	}
	for name, value := range pathParams {
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid %s %q", name, value)
		}
		fields[name] = id
	}
	return structpb.NewStruct(fields)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, err error) {
	st := status.Convert(err)
	writeErrorBody(w, runtime.HTTPStatusFromCode(st.Code()), errorBody{Code: st.Code().String(), Message: st.Message()})
}

func writeErrorBody(w http.ResponseWriter, code int, body errorBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// isPublicRequest reports whether r targets a route anonymous callers may use.
func isPublicRequest(r *http.Request) bool {
	if r.URL.Path == healthzPath {
		return true
	}
	for _, op := range operations {
		if op.public && op.method == r.Method && matchPath(op.path, r.URL.Path) {
			return true
		}
	}
	return false
}

// matchPath matches a route template such as /v1/offers/{id} against path.
func matchPath(pattern, path string) bool {
	want := strings.Split(strings.Trim(pattern, "/"), "/")
	got := strings.Split(strings.Trim(path, "/"), "/")
	if len(want) != len(got) {
		return false
	}
	for i, segment := range want {
		if strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") {
			if got[i] == "" {
				return false
			}
			continue
		}
		if segment != got[i] {
			return false
		}
	}
	return true
}

// withTimeout bounds the lifetime of every HTTP request context.
func withTimeout(next http.Handler, timeout time.Duration) http.Handler {
	if timeout <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TimeoutInterceptor bounds the context of every unary call.
func TimeoutInterceptor(timeout time.Duration) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if timeout <= 0 {
			return handler(ctx, req)
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return handler(ctx, req)
	}
}

// withRequestID tags every request with an id, echoed in the response, and
// logs the outcome.
func withRequestID(next http.Handler, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		logger.Debug("HTTP request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
