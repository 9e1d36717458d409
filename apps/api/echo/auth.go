package echoapi

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/user"
)

const (
	contextClaimsKey = "claims"
	contextUserKey   = "user"
	bearerPrefix     = "Bearer "
)

var signingMethod = jwt.SigningMethodHS256

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.RegisteredClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Role         string `json:"role,omitempty"`
	RefID        string `json:"refId,omitempty"`
}

func NewClaims(conf *core.Config, usr user.User, origIat ...int64) *Claims {
	now := time.Now()

	oriat := now.Unix()
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    conf.AppName,
			Subject:   usr.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(conf.Server.JWTExpirationDelta)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		OrigIssuedAt: oriat,
		Role:         usr.Role,
		RefID:        usr.RefID,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(signingMethod, claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func parseToken(conf *core.Config, tokenStr string) (*Claims, error) {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(
		tokenStr,
		claims,
		func(*jwt.Token) (interface{}, error) { return []byte(conf.SecretKey), nil },
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// authMiddleware authenticates the bearer token and loads the active user into the context.
func (s *Server) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		header := ctx.Request().Header.Get(echo.HeaderAuthorization)
		if !strings.HasPrefix(header, bearerPrefix) {
			return errMissingToken
		}
		tokenStr := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
		if tokenStr == "" {
			return errMissingToken
		}

		claims, err := parseToken(s.deps.Conf, tokenStr)
		if err != nil {
			return errInvalidToken
		}
		usr, err := s.deps.UserSvc.GetByID(ctx.Request().Context(), claims.Subject)
		if err != nil {
			if errors.Cause(err) == user.ErrNotFound {
				return errInactiveUser
			}
			return errors.Wrap(err, "finding user by ID")
		}
		if !usr.IsActive {
			return errInactiveUser
		}

		ctx.Set(contextClaimsKey, *claims)
		ctx.Set(contextUserKey, usr)
		return next(ctx)
	}
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if claims, ok := ctx.Get(contextClaimsKey).(Claims); ok {
		return claims, nil
	}
	return Claims{}, errMissingToken
}

func getContextUser(ctx echo.Context) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}
	return user.User{}, errMissingToken
}

func refreshToken(ctx echo.Context, conf *core.Config) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context user")
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	token, err := GenerateToken(conf, NewClaims(conf, usr, claims.OrigIssuedAt))
	return token, errors.Wrap(err, "generating token")
}
