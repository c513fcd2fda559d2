package main

import (
	"github.com/labstack/echo/v4"
	"github.com/oliverisaac/keepnotes/lib/lifecycle"
	"github.com/oliverisaac/keepnotes/lib/notes"
	"github.com/oliverisaac/keepnotes/types"
	"github.com/oliverisaac/keepnotes/views"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

func homePageHandler(cfg types.Config, svc *notes.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		view, err := viewFromQuery(c)
		if err != nil {
			view = lifecycle.ViewActive
		}
		return renderNotesPage(c, cfg, svc, view, c.QueryParam("search"), err)
	}
}

func binPageHandler(cfg types.Config, svc *notes.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		return renderNotesPage(c, cfg, svc, lifecycle.ViewBin, "", nil)
	}
}

func renderNotesPage(c echo.Context, cfg types.Config, svc *notes.Service, view lifecycle.View, search string, pageErr error) error {
	pageData := types.HomePageData{Config: cfg}.
		WithView(string(view)).
		WithSearch(search)
	if pageErr != nil {
		pageData = pageData.WithError(pageErr)
	}

	if user, ok := GetSessionUser(c); ok {
		logrus.Debugf("Generating %s page for user %d", view, user.ID)
		list, err := svc.ListView(c.Request().Context(), user.Owner(), view, search)
		if err != nil {
			pageData = pageData.WithError(errors.New(notes.Describe(err)))
		}
		pageData = pageData.
			WithUser(user).
			WithNotes(list)
	} else {
		logrus.Debug("Generating anonymous homepage")
	}

	return render(c, 200, views.Index(pageData))
}
