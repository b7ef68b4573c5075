package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"greencreditapi/pkg/geocode"
	"greencreditapi/pkg/identity"
	"greencreditapi/pkg/objstore"
	"greencreditapi/pkg/schemas"
	"greencreditapi/pkg/store"
	"greencreditapi/pkg/utils"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Handler struct {
	Logger   *zap.Logger
	Validate *validator.Validate
	Store    store.Store
	RedisCli *redis.Client
	Objects  objstore.Uploader
	Geocoder geocode.Resolver
	Google   identity.Verifier
	Firebase identity.Verifier // nil unless firebase credentials are configured

	ChatLimiter   *Limiter
	SubmitLimiter *Limiter
}

type ResParams struct {
	W       http.ResponseWriter
	R       *http.Request
	Code    int
	Err     error
	ReqData any // for logs
	ResData any
}

// Session is the authenticated principal of a request.
type Session struct {
	Uid   string
	Admin bool
	Token *utils.AuthToken // nil for firebase sessions
}

type sessionKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the session set by AuthMiddleware.
func SessionFrom(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil && s.Uid != ""
}

func (h *Handler) AuthMiddleware(f http.HandlerFunc) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {
		resParams := &ResParams{W: w, R: r}
		session, err := h.authenticate(r)
		if err != nil {
			resParams.Err = err
			resParams.Code = http.StatusUnauthorized
			h.Res(resParams)
			return
		}
		f(w, r.WithContext(WithSession(r.Context(), session)))
	}

}

func (h *Handler) AdminMiddleware(f http.HandlerFunc) http.HandlerFunc {

	return h.AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		session, _ := SessionFrom(r.Context())
		if !session.Admin {
			h.Res(&ResParams{W: w, R: r, Code: http.StatusForbidden, Err: errors.New("admin role required")})
			return
		}

		// the token's claim may predate a role change
		if session.Token != nil {
			user, err := h.Store.GetUser(r.Context(), session.Uid)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				h.Res(&ResParams{W: w, R: r, Code: http.StatusInternalServerError, Err: err})
				return
			}
			if err != nil || !user.IsAdmin() {
				h.Res(&ResParams{W: w, R: r, Code: http.StatusForbidden, Err: errors.New("admin role revoked")})
				return
			}
		}

		f(w, r)
	})

}

func (h *Handler) authenticate(r *http.Request) (*Session, error) {

	raw, err := utils.BearerToken(r)
	if err != nil {
		return nil, err
	}

	authToken, err := utils.ParseAuthToken(raw)
	if err == nil {
		return &Session{Uid: authToken.Uid, Admin: authToken.Admin, Token: authToken}, nil
	}
	if h.Firebase == nil {
		return nil, err
	}

	principal, fbErr := h.Firebase.Verify(r.Context(), raw)
	if fbErr != nil {
		return nil, errors.Join(err, fbErr)
	}

	// firebase principals get a user document on first sight
	role := schemas.ROLE_USER
	if principal.Admin {
		role = schemas.ROLE_ADMIN
	}
	user, err := h.Store.EnsureUser(r.Context(), &schemas.User{
		Id:          principal.Uid,
		Ctime:       time.Now().UTC(),
		Email:       utils.NormalizeEmail(principal.Email),
		FirebaseUid: principal.Uid,
		FirstName:   principal.FirstName,
		LastName:    principal.LastName,
		Handle:      utils.NewHandle(),
		Role:        role,
	})
	if err != nil {
		return nil, fmt.Errorf("ensuring firebase user: %w", err)
	}

	return &Session{Uid: user.Id, Admin: principal.Admin || user.IsAdmin()}, nil

}

// DecodeBody decodes a json request body, rejecting unknown fields.
func DecodeBody(r *http.Request, dst any) error {

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)

}

// Flag builds the single flag response body used for expected failures.
func Flag(name string) map[string]bool {
	return map[string]bool{name: true}
}

func (h *Handler) Res(params *ResParams) {

	if params.Err != nil && errors.Is(params.Err, context.Canceled) {
		return
	}

	pc, file, line, ok := runtime.Caller(1)
	caller := "unknown"
	if ok {
		caller = fmt.Sprintf("%s:%d (%s)", file, line, runtime.FuncForPC(pc).Name())
	}

	// handle logging
	if params.Code >= 500 {
		h.Logger.Error("Error at "+caller,
			zap.Error(params.Err),
			zap.Any("request_data", params.ReqData),
		)
	} else if params.Code >= 400 {
		h.Logger.Warn("Warning at "+caller,
			zap.Error(params.Err),
			zap.Any("request_data", params.ReqData),
		)
	}

	if params.Code == 0 {
		params.Code = http.StatusOK
	}

	render.Status(params.R, params.Code)
	render.JSON(params.W, params.R, params.ResData)

}
