package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/formflow-backend/internal/data/repos"
	"github.com/yungbote/formflow-backend/internal/forms/access"
	"github.com/yungbote/formflow-backend/internal/platform/ctxutil"
	"github.com/yungbote/formflow-backend/internal/platform/dbctx"
	"github.com/yungbote/formflow-backend/internal/platform/logger"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrUnknownUser  = errors.New("unknown user")
)

type JWTClaims struct {
	jwt.RegisteredClaims
}

// AuthService verifies bearer tokens and turns their subject into a Caller.
// Tokens are issued elsewhere; IssueToken exists for operators and tests.
type AuthService interface {
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	IssueToken(userID uuid.UUID) (string, error)
	LoadCaller(ctx context.Context, userID uuid.UUID) (*access.Caller, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	log          *logger.Logger
	identityRepo repos.IdentityRepo
	jwtSecretKey string
	accessTTL    time.Duration
}

func NewAuthService(
	log *logger.Logger,
	identityRepo repos.IdentityRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
) AuthService {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	return &authService{
		log:          log.With("service", "AuthService"),
		identityRepo: identityRepo,
		jwtSecretKey: jwtSecretKey,
		accessTTL:    accessTTL,
	}
}

func (as *authService) GetAccessTTL() time.Duration { return as.accessTTL }

func (as *authService) IssueToken(userID uuid.UUID) (string, error) {
	if userID == uuid.Nil {
		return "", fmt.Errorf("missing user id")
	}
	now := time.Now()
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(as.jwtSecretKey))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return ctx, ErrInvalidToken
	}
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil || !token.Valid {
		return ctx, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*JWTClaims)
	if !ok {
		return ctx, ErrInvalidToken
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}

	caller, err := as.LoadCaller(ctx, userID)
	if err != nil {
		return ctx, err
	}
	ctx = ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		Permissions: caller.PermissionKeys,
	})
	return WithCaller(ctx, caller), nil
}

func (as *authService) LoadCaller(ctx context.Context, userID uuid.UUID) (*access.Caller, error) {
	grants, err := as.identityRepo.LoadGrants(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, fmt.Errorf("load grants: %w", err)
	}
	if grants == nil || grants.User == nil {
		return nil, ErrUnknownUser
	}
	return &access.Caller{
		UserID:         grants.User.ID,
		Email:          grants.User.Email,
		RoleIDs:        grants.RoleIDs,
		PermissionIDs:  grants.PermissionIDs,
		PermissionKeys: grants.PermissionKeys,
	}, nil
}

type callerKey struct{}

// WithCaller attaches the resolved caller to ctx.
func WithCaller(ctx context.Context, caller *access.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFrom returns the caller attached by WithCaller, or nil for guests.
func CallerFrom(ctx context.Context) *access.Caller {
	if ctx == nil {
		return nil
	}
	if c, ok := ctx.Value(callerKey{}).(*access.Caller); ok {
		return c
	}
	return nil
}
