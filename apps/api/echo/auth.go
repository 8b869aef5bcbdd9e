package echoapi

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/prologin/gccsite/core"
	"github.com/prologin/gccsite/core/user"
)

var (
	// appJWTConfig is the default JWT auth middleware config.
	appJWTConfig = middleware.JWTConfig{
		SigningKey:    []byte(core.Conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    "userToken",
		Claims:        new(Claims),
	}
	contextUserKey   = "user"
	stateCookieName  = "oauth_state"
	stateCookieAge   = 10 * time.Minute
	errBadOAuthState = echo.NewHTTPError(http.StatusBadRequest, "invalid oauth state")
)

// Claims represents the authorization claims transmitted via a JWT.
// Identity is established by the Prologin SSO; these claims only carry
// what the API needs between requests.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	UserID       int    `json:"uid,omitempty"`
	Username     string `json:"username,omitempty"`
	Email        string `json:"email,omitempty"`
	IsStaff      bool   `json:"is_staff,omitempty"`
}

func GetUserClaims(usr user.User, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	var oriat int64
	if len(origIat) > 0 {
		oriat = origIat[0]
	} else {
		oriat = nownix
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   strconv.Itoa(usr.ID),
			Audience:  "GCC",
			ExpiresAt: now.Add(core.Conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		UserID:       usr.ID,
		Username:     usr.Username,
		Email:        usr.Email,
		IsStaff:      usr.IsStaff,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(appJWTConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(appJWTConfig.SigningKey.([]byte))
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(appJWTConfig.ContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextUser(ctx echo.Context, svc *user.Service, clms ...Claims) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}

	var claims Claims
	var err error
	if len(clms) > 0 {
		claims = clms[0]
	} else {
		claims, err = getContextClaims(ctx)
		if err != nil {
			return user.User{}, errors.Wrap(err, "getting context claims")
		}
	}

	usr, err := svc.GetByID(ctx.Request().Context(), claims.UserID)
	if err != nil {
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	ctx.Set(contextUserKey, usr)
	return usr, nil
}

func refreshToken(ctx echo.Context, svc *user.Service) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	usr, err := getContextUser(ctx, svc, claims)
	if err != nil {
		return "", errors.Wrap(err, "getting context user")
	}

	// check if user is still active
	if !usr.IsActive {
		return "", errAccountDeactivated
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(core.Conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	newClaims := GetUserClaims(usr, claims.OrigIssuedAt)
	token, err := GenerateToken(newClaims)
	return token, errors.Wrap(err, "generating token")
}

// authApi delegates authentication to the Prologin SSO: the API never
// sees a password, it exchanges an authorization code for the provider's
// profile and mints its own JWT.
type authApi struct {
	svc   *user.Service
	oauth *oauth2.Config
}

func registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *user.Service) {
	api := authApi{
		svc: svc,
		oauth: &oauth2.Config{
			ClientID:     core.Conf.OAuth.ClientID,
			ClientSecret: core.Conf.OAuth.ClientSecret,
			RedirectURL:  core.Conf.OAuth.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:  core.Conf.OAuth.Endpoint + "/authorize",
				TokenURL: core.Conf.OAuth.Endpoint + "/token",
			},
		},
	}

	ag := g.Group("/auth")
	ag.GET("/login", api.login)
	ag.GET("/callback", api.callback)
	ag.POST("/token-refresh", api.refreshToken, jwt)
}

// Handlers

func (api *authApi) login(ctx echo.Context) error {
	state, err := newState()
	if err != nil {
		return errors.Wrap(err, "generating oauth state")
	}
	ctx.SetCookie(&http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Expires:  time.Now().Add(stateCookieAge),
		HttpOnly: true,
		Path:     "/",
	})
	return ctx.JSON(http.StatusOK, LoginURLResponse{URL: api.oauth.AuthCodeURL(state)})
}

func (api *authApi) callback(ctx echo.Context) error {
	cookie, err := ctx.Cookie(stateCookieName)
	if err != nil || cookie.Value == "" || cookie.Value != ctx.QueryParam("state") {
		return errBadOAuthState
	}

	tok, err := api.oauth.Exchange(ctx.Request().Context(), ctx.QueryParam("code"))
	if err != nil {
		return errAuthenticationFailed
	}

	ou, err := fetchOAuthUser(ctx.Request().Context(), api.oauth, tok)
	if err != nil {
		return errors.Wrap(err, "fetching oauth user")
	}

	usr, err := api.svc.SyncFromOAuth(ctx.Request().Context(), ou)
	if err != nil {
		return errors.Wrap(err, "syncing oauth user")
	}
	if !usr.IsActive {
		return errAccountDeactivated
	}

	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

// fetchOAuthUser loads the authenticated profile from the provider.
func fetchOAuthUser(ctx context.Context, conf *oauth2.Config, tok *oauth2.Token) (user.OAuthUser, error) {
	var ou user.OAuthUser

	res, err := conf.Client(ctx, tok).Get(core.Conf.OAuth.Endpoint + "/userinfo")
	if err != nil {
		return ou, errors.Wrap(err, "querying userinfo")
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		return ou, errors.Errorf("userinfo returned %d", res.StatusCode)
	}
	if err := json.NewDecoder(res.Body).Decode(&ou); err != nil {
		return ou, errors.Wrap(err, "decoding userinfo")
	}
	return ou, nil
}

func newState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
