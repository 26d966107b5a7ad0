package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ongoza/cyberhub/core/onboarding"
)

type onboardingApi struct {
	svc           *onboarding.Service
	auth          *authenticator
	maxUploadSize int64
}

func registerOnboardingAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *authenticator, svc *onboarding.Service, maxUploadSize int64) {
	if maxUploadSize <= 0 {
		maxUploadSize = onboarding.DefaultMaxUploadSize
	}
	api := onboardingApi{svc: svc, auth: auth, maxUploadSize: maxUploadSize}

	og := g.Group("/onboarding", jwt)
	og.POST("", api.start)
	og.GET("/options", api.options)
	og.GET("/result", api.result)
	og.GET("/users/:userId/result", api.userResult, adminMiddleware(auth))

	// session endpoints
	sg := og.Group("/:id", sessionOwnerMiddleware(auth, svc))
	sg.GET("", api.snapshot)
	sg.DELETE("", api.abandon)
	sg.PATCH("/profile", api.updateProfile)
	sg.POST("/advance", api.advance)
	sg.POST("/retreat", api.retreat)
	sg.PUT("/documents/:kind", api.upload)
	sg.GET("/documents/:kind", api.document)
	sg.GET("/question", api.question)
	sg.POST("/answers", api.answer)
	sg.POST("/finish", api.finish)
}

type OptionsResponse struct {
	Tracks          []onboarding.Track          `json:"tracks"`
	EducationLevels []onboarding.EducationLevel `json:"education_levels"`
	Documents       []onboarding.DocumentKind   `json:"documents"`
}

// Handlers

func (api *onboardingApi) start(ctx echo.Context) error {
	userID, err := api.auth.contextUserID(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	sess, err := api.svc.Start(ctx.Request().Context(), userID)
	if err != nil {
		return errors.Wrap(err, "starting onboarding")
	}
	return ctx.JSON(http.StatusOK, sess.Snapshot())
}

func (api *onboardingApi) options(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, OptionsResponse{
		Tracks:          api.svc.Bank().Tracks(),
		EducationLevels: onboarding.EducationLevels,
		Documents:       onboarding.RequiredDocuments,
	})
}

func (api *onboardingApi) result(ctx echo.Context) error {
	userID, err := api.auth.contextUserID(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	res, err := api.svc.Result(ctx.Request().Context(), userID)
	if err != nil {
		return errors.Wrap(err, "finding onboarding result")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *onboardingApi) userResult(ctx echo.Context) error {
	res, err := api.svc.Result(ctx.Request().Context(), ctx.Param("userId"))
	if err != nil {
		return errors.Wrap(err, "finding onboarding result")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *onboardingApi) snapshot(ctx echo.Context) error {
	sess, err := contextSession(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess.Snapshot())
}

func (api *onboardingApi) abandon(ctx echo.Context) error {
	sess, err := contextSession(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Abandon(sess.ID()); err != nil {
		return errors.Wrap(err, "abandoning onboarding")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *onboardingApi) updateProfile(ctx echo.Context) error {
	sess, err := contextSession(ctx)
	if err != nil {
		return err
	}
	var data onboarding.ProfileUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ProfileUpdate")
	}
	if err := sess.UpdateProfile(data); err != nil {
		return errors.Wrap(err, "updating profile")
	}
	return ctx.JSON(http.StatusOK, sess.Snapshot())
}

func (api *onboardingApi) advance(ctx echo.Context) error {
	sess, err := contextSession(ctx)
	if err != nil {
		return err
	}
	if err := sess.Advance(); err != nil {
		return errors.Wrap(err, "advancing")
	}
	return ctx.JSON(http.StatusOK, sess.Snapshot())
}

func (api *onboardingApi) retreat(ctx echo.Context) error {
	sess, err := contextSession(ctx)
	if err != nil {
		return err
	}
	if _, err := sess.Retreat(); err != nil {
		return errors.Wrap(err, "retreating")
	}
	return ctx.JSON(http.StatusOK, sess.Snapshot())
}

func (api *onboardingApi) upload(ctx echo.Context) error {
	sess, err := contextSession(ctx)
	if err != nil {
		return err
	}
	kind, err := onboarding.ParseDocumentKind(ctx.Param("kind"))
	if err != nil {
		return err
	}
	f, err := bindFile(ctx, kind, api.maxUploadSize)
	if err != nil {
		return err
	}
	upload, err := sess.Upload(kind, f)
	if err != nil {
		return errors.Wrap(err, "uploading document")
	}
	return ctx.JSON(http.StatusAccepted, upload)
}

func (api *onboardingApi) document(ctx echo.Context) error {
	sess, err := contextSession(ctx)
	if err != nil {
		return err
	}
	kind, err := onboarding.ParseDocumentKind(ctx.Param("kind"))
	if err != nil {
		return err
	}
	upload, ok := sess.Document(kind)
	if !ok {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, upload)
}

func (api *onboardingApi) question(ctx echo.Context) error {
	sess, err := contextSession(ctx)
	if err != nil {
		return err
	}
	q, ok := sess.NextQuestion()
	if !ok {
		return errNoPendingQuestion
	}
	return ctx.JSON(http.StatusOK, q)
}

func (api *onboardingApi) answer(ctx echo.Context) error {
	sess, err := contextSession(ctx)
	if err != nil {
		return err
	}
	var data AnswerRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AnswerRequest")
	}
	if err := sess.SubmitAnswer(data.Value); err != nil {
		return errors.Wrap(err, "submitting answer")
	}
	return ctx.JSON(http.StatusOK, sess.Snapshot())
}

func (api *onboardingApi) finish(ctx echo.Context) error {
	sess, err := contextSession(ctx)
	if err != nil {
		return err
	}
	res, err := api.svc.Finish(ctx.Request().Context(), sess.ID())
	if err != nil {
		return errors.Wrap(err, "finishing onboarding")
	}
	return ctx.JSON(http.StatusOK, res)
}
