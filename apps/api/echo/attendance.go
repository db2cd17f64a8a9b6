package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/bmwamba/darasa/core/attendance"
	"github.com/bmwamba/darasa/core/user"
)

type attendanceApi struct {
	svc     *attendance.Service
	userSvc *user.Service
}

func registerAttendanceAPI(g *echo.Group, jwt, authed echo.MiddlewareFunc, svc *attendance.Service, userSvc *user.Service) {
	api := attendanceApi{svc: svc, userSvc: userSvc}

	ag := g.Group("/attendance", jwt, authed)
	ag.POST("/check-in", api.checkIn)
	ag.GET("/me", api.queryMine)

	// admin only
	ad := adminMiddleware()
	ag.POST("/generate", api.generate, ad)
	ag.GET("", api.query, ad)
}

// Handlers

func (api *attendanceApi) generate(ctx echo.Context) error {
	rec, reused, err := api.svc.GenerateDailyCode(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, DailyCodeResponse{
		VerificationCode: rec.Code,
		Date:             rec.Date,
		Reused:           reused,
	})
}

func (api *attendanceApi) checkIn(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data attendance.CheckIn
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CheckIn")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	rec, err := api.svc.CheckIn(ctx.Request().Context(), usr.ID, data.VerificationCode)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *attendanceApi) query(ctx echo.Context) error {
	filter := new(attendance.Filter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []attendance.Record{})
	}

	records, err := api.svc.Filter(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying attendance records")
	}
	if records == nil {
		records = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *attendanceApi) queryMine(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	records, err := api.svc.Filter(ctx.Request().Context(), &attendance.Filter{UserID: usr.ID, ClaimedOnly: true})
	if err != nil {
		return errors.Wrap(err, "querying attendance records")
	}
	if records == nil {
		records = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, records)
}

type DailyCodeResponse struct {
	VerificationCode string `json:"verification_code"`
	Date             string `json:"date"`
	Reused           bool   `json:"reused"`
}
