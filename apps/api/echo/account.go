package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/bmwamba/darasa/core"
	"github.com/bmwamba/darasa/core/notification"
	"github.com/bmwamba/darasa/core/submission"
	"github.com/bmwamba/darasa/core/user"
)

type accountApi struct {
	svc      *user.Service
	subSvc   *submission.Service
	notifSvc *notification.Service
	conf     *core.Config
}

func registerAuthAPI(
	g *echo.Group,
	jwt, authed echo.MiddlewareFunc,
	conf *core.Config,
	svc *user.Service,
	subSvc *submission.Service,
	notifSvc *notification.Service,
) {
	api := accountApi{
		svc:      svc,
		subSvc:   subSvc,
		notifSvc: notifSvc,
		conf:     conf,
	}

	ag := g.Group("/auth")

	// un-authed endpoints
	ag.POST("/register", api.register)
	ag.POST("/login", api.login)
	ag.POST("/google", api.googleLogin)
	ag.POST("/password-reset", api.resetPassword)
	ag.POST("/password-reset-confirm", api.confirmPasswordReset)

	// authed endpoints
	mg := ag.Group("", jwt, authed)
	mg.POST("/token-refresh", api.refreshToken)
	mg.GET("/me", api.me)
	mg.PUT("/me", api.updateMe)
	mg.PUT("/password", api.changePassword)
}

// Handlers

func (api *accountApi) register(ctx echo.Context) error {
	var data user.Register
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Register")
	}
	if api.conf.RegistrationCode != "" && data.RegistrationCode != api.conf.RegistrationCode {
		return core.NewValidationError(nil, core.FieldError{Field: "registrationCode", Error: "invalid registration code"})
	}
	if err := data.Validate(api.svc); err != nil {
		return err
	}

	usr, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering user")
	}

	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusCreated, AuthResponse{User: usr, Token: token})
}

func (api *accountApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	usr, err := authenticate(ctx, data.Email, data.Password, api.svc)
	if err != nil {
		return err
	}
	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, AuthResponse{User: usr, Token: token})
}

func (api *accountApi) googleLogin(ctx echo.Context) error {
	var data GoogleLoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GoogleLoginRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	email, name, googleID, err := verifyGoogleToken(data.IDToken)
	if err != nil {
		return err
	}
	usr, err := api.svc.GetOrCreateGoogleUser(ctx.Request().Context(), email, name, googleID)
	if err != nil {
		return errors.Wrap(err, "resolving Google user")
	}
	if !usr.IsActive {
		return errAccountDeactivated
	}
	usr, err = api.svc.SetLastLogin(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "setting lastLogin")
	}

	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, AuthResponse{User: usr, Token: token})
}

func (api *accountApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	subCount, err := api.subSvc.CountByUser(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "counting submissions")
	}
	unread, err := api.notifSvc.CountUnread(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "counting unread notifications")
	}

	return ctx.JSON(http.StatusOK, AccountResponse{
		User:                     usr,
		SubmissionsCount:         subCount,
		UnreadNotificationsCount: unread,
	})
}

func (api *accountApi) updateMe(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data user.UpdateUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	// `Role` and `IsActive` can only be changed by admin via /users/:id
	if data.Role != "" || data.IsActive != nil {
		return errHttpForbidden
	}
	if err := data.Validate(usr, api.svc); err != nil {
		return err
	}

	usr, err = api.svc.Update(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	ctx.Set(contextUserKey, usr)
	return ctx.JSON(http.StatusOK, usr)
}

func (api *accountApi) changePassword(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data user.ChangePassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChangePassword")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.svc.ChangePassword(ctx.Request().Context(), usr, data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been changed."})
}

func (api *accountApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email); !(err == nil || errors.Cause(err) == user.ErrNotFound) {
		// do not return errors to attackers
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
}

func (api *accountApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}

func (api *accountApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.svc)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	GoogleLoginRequest struct {
		IDToken string `json:"id_token" validate:"required"`
	}

	AuthResponse struct {
		User  user.User `json:"user"`
		Token string    `json:"token"`
	}

	TokenResponse struct {
		Token string `json:"token"`
	}

	AccountResponse struct {
		User                     user.User `json:"user"`
		SubmissionsCount         int       `json:"submissions_count"`
		UnreadNotificationsCount int       `json:"unread_notifications_count"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func (lr *LoginRequest) Validate() error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return core.Validate.Struct(lr)
}

func (gr *GoogleLoginRequest) Validate() error {
	return core.Validate.Struct(gr)
}

func (pr *PasswordResetRequest) Validate() error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return core.Validate.Struct(pr)
}
