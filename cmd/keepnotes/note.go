package main

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/oliverisaac/keepnotes/lib/lifecycle"
	"github.com/oliverisaac/keepnotes/lib/notes"
	"github.com/oliverisaac/keepnotes/types"
	"github.com/pkg/errors"
)

type noteBody struct {
	Note types.Note `json:"note"`
}

type notesBody struct {
	Notes []types.Note `json:"notes"`
}

type batchRequest struct {
	Action lifecycle.Action `json:"action"`
	IDs    []string         `json:"ids"`
}

type batchBody struct {
	Results []notes.BatchResult `json:"results"`
}

const purgedMessage = "Note deleted permanently"

// noteError maps the service error taxonomy onto HTTP responses. Storage failures only ever
// expose their generic message.
func noteError(c echo.Context, err error) error {
	var validationErr *notes.ValidationError
	var storageErr *notes.StorageError
	switch {
	case errors.Is(err, notes.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, errorBody{Error: "Unauthorized"})
	case errors.Is(err, notes.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorBody{Error: "Note not found"})
	case errors.As(err, &validationErr):
		return c.JSON(http.StatusBadRequest, errorBody{Error: "Validation failed", Details: validationErr.Error()})
	case errors.As(err, &storageErr):
		return c.JSON(http.StatusInternalServerError, errorBody{Error: storageErr.Public()})
	}
	return err
}

// viewFromQuery reads ?view=, falling back to the legacy archived/favorite flags.
func viewFromQuery(c echo.Context) (lifecycle.View, error) {
	if v := c.QueryParam("view"); v != "" {
		return lifecycle.ParseView(v)
	}
	if archived, _ := strconv.ParseBool(c.QueryParam("archived")); archived {
		return lifecycle.ViewArchived, nil
	}
	if favorite, _ := strconv.ParseBool(c.QueryParam("favorite")); favorite {
		return lifecycle.ViewFavorites, nil
	}
	return lifecycle.ViewActive, nil
}

func createNote(svc *notes.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var fields types.NoteFields
		if err := c.Bind(&fields); err != nil {
			return c.JSON(http.StatusBadRequest, errorBody{Error: "Invalid note", Details: err.Error()})
		}

		note, err := svc.Create(c.Request().Context(), sessionOwner(c), fields)
		if err != nil {
			return noteError(c, err)
		}

		if !wantsJSON(c) {
			return redirectBack(c, "/")
		}
		return c.JSON(http.StatusCreated, noteBody{Note: note})
	}
}

func listNotes(svc *notes.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		view, err := viewFromQuery(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorBody{Error: "Invalid view", Details: err.Error()})
		}

		list, err := svc.ListView(c.Request().Context(), sessionOwner(c), view, c.QueryParam("search"))
		if err != nil {
			return noteError(c, err)
		}
		return c.JSON(http.StatusOK, notesBody{Notes: list})
	}
}

func listBin(svc *notes.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		list, err := svc.ListView(c.Request().Context(), sessionOwner(c), lifecycle.ViewBin, "")
		if err != nil {
			return noteError(c, err)
		}
		return c.JSON(http.StatusOK, notesBody{Notes: list})
	}
}

func getNote(svc *notes.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		note, err := svc.Get(c.Request().Context(), sessionOwner(c), c.Param("id"))
		if err != nil {
			return noteError(c, err)
		}
		return c.JSON(http.StatusOK, noteBody{Note: note})
	}
}

func updateNote(svc *notes.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var patch types.NotePatch
		if err := (&echo.DefaultBinder{}).BindBody(c, &patch); err != nil {
			return c.JSON(http.StatusBadRequest, errorBody{Error: "Invalid patch", Details: err.Error()})
		}

		note, err := svc.Update(c.Request().Context(), sessionOwner(c), c.Param("id"), patch)
		if err != nil {
			return noteError(c, err)
		}
		return c.JSON(http.StatusOK, noteBody{Note: note})
	}
}

func deleteNote(svc *notes.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := svc.Purge(c.Request().Context(), sessionOwner(c), c.Param("id")); err != nil {
			return noteError(c, err)
		}
		return c.JSON(http.StatusOK, messageBody{Message: purgedMessage})
	}
}

func toggleFavorite(svc *notes.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		note, err := svc.ToggleFavorite(c.Request().Context(), sessionOwner(c), c.Param("id"))
		if err != nil {
			return noteError(c, err)
		}
		if !wantsJSON(c) {
			return redirectBack(c, "/")
		}
		return c.JSON(http.StatusOK, noteBody{Note: note})
	}
}

func noteAction(svc *notes.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		action, err := lifecycle.ParseAction(c.Param("action"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorBody{Error: "Unknown action", Details: err.Error()})
		}

		var patch types.NotePatch
		if action == lifecycle.ActionEdit {
			if err := (&echo.DefaultBinder{}).BindBody(c, &patch); err != nil {
				return c.JSON(http.StatusBadRequest, errorBody{Error: "Invalid patch", Details: err.Error()})
			}
		}

		note, err := svc.Do(c.Request().Context(), sessionOwner(c), c.Param("id"), action, patch)
		if err != nil {
			return noteError(c, err)
		}

		if !wantsJSON(c) {
			return redirectBack(c, "/")
		}
		if action == lifecycle.ActionPurgeForever {
			return c.JSON(http.StatusOK, messageBody{Message: purgedMessage})
		}
		return c.JSON(http.StatusOK, noteBody{Note: note})
	}
}

func restoreBin(svc *notes.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		results, err := svc.RestoreAll(c.Request().Context(), sessionOwner(c))
		return batchResponse(c, results, err)
	}
}

func emptyBin(svc *notes.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		results, err := svc.EmptyBin(c.Request().Context(), sessionOwner(c))
		return batchResponse(c, results, err)
	}
}

func batchNotes(svc *notes.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req batchRequest
		if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorBody{Error: "Invalid batch", Details: err.Error()})
		}
		if len(req.IDs) == 0 {
			return c.JSON(http.StatusBadRequest, errorBody{Error: "Validation failed", Details: "ids is required"})
		}

		results, err := svc.Batch(c.Request().Context(), sessionOwner(c), req.Action, req.IDs)
		return batchResponse(c, results, err)
	}
}

func batchResponse(c echo.Context, results []notes.BatchResult, err error) error {
	if err != nil {
		return noteError(c, err)
	}
	if !wantsJSON(c) {
		return redirectBack(c, "/bin")
	}
	return c.JSON(http.StatusOK, batchBody{Results: results})
}
