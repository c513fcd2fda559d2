package main

import (
	"fmt"
	"net/http"
	"net/mail"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/oliverisaac/keepnotes/lib/notes"
	"github.com/oliverisaac/keepnotes/types"
	"github.com/oliverisaac/keepnotes/views"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type signUpRequest struct {
	Username string `json:"username" form:"username" validate:"required,max=64"`
	Name     string `json:"name" form:"name" validate:"required,max=200"`
	Email    string `json:"email" form:"email" validate:"required"`
	Password string `json:"password" form:"password" validate:"required,min=6"`
}

type signInRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type userBody struct {
	User    types.PublicUser `json:"user"`
	Message string           `json:"message,omitempty"`
}

func getUserByID(db *gorm.DB, id uint) (types.User, error) {
	var user types.User
	err := db.First(&user, "id = ?", id).Error

	return user, errors.Wrap(err, "Finding user")
}

func userExists(db *gorm.DB, column, value string) bool {
	var user types.User
	err := db.First(&user, column+" = ?", value).Error

	return !errors.Is(err, gorm.ErrRecordNotFound)
}

func signUp(cfg types.Config) echo.HandlerFunc {
	return func(c echo.Context) error {
		return render(c, 200, views.SignUpForm(types.NewFormData(cfg)))
	}
}

func signUpWithEmailAndPassword(db *gorm.DB, cfg types.Config) echo.HandlerFunc {
	return func(c echo.Context) error {
		fail := func(status int, err error) error {
			if wantsJSON(c) {
				return c.JSON(status, errorBody{Error: err.Error()})
			}
			return render(c, 422, views.SignUpForm(types.NewFormData(cfg).WithError(err)))
		}

		var req signUpRequest
		if err := c.Bind(&req); err != nil {
			return fail(http.StatusBadRequest, fmt.Errorf("Invalid sign up request"))
		}
		req.Username = strings.TrimSpace(req.Username)
		req.Name = strings.TrimSpace(req.Name)
		if err := c.Validate(&req); err != nil {
			return fail(http.StatusBadRequest, describeFieldError(err))
		}

		parsedEmail, err := mail.ParseAddress(req.Email)
		if err != nil {
			return fail(http.StatusBadRequest, fmt.Errorf("Oops! That email address appears to be invalid"))
		}
		email := parsedEmail.Address

		if len(cfg.AllowSignupEmails) > 0 && !slices.Contains(cfg.AllowSignupEmails, email) {
			return fail(http.StatusForbidden, fmt.Errorf("Oops! That email address is not allowed to sign up"))
		}

		if userExists(db, "email", email) {
			return fail(http.StatusBadRequest, fmt.Errorf("User already exists with this email"))
		}
		if userExists(db, "username", req.Username) {
			return fail(http.StatusBadRequest, fmt.Errorf("User already exists with this username"))
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 10)
		if err != nil {
			return errors.Wrap(err, "Hashing sign up password")
		}

		// Check if this is the first user
		var count int64
		if err := db.Model(&types.User{}).Count(&count).Error; err != nil {
			return errors.Wrap(err, "Counting users")
		}

		role := "user"
		if count == 0 {
			role = "admin"
		}

		user := types.User{
			Username: req.Username,
			Name:     req.Name,
			Email:    email,
			Password: string(hash),
			Role:     role,
		}
		user.CreatedAt = time.Now()

		if err := db.Create(&user).Error; err != nil {
			return errors.Wrap(err, "Create user error")
		}
		logrus.WithField("user", user.ID).Info("Registered user")

		if wantsJSON(c) {
			return c.JSON(http.StatusCreated, userBody{User: user.Public(), Message: "User registered successfully"})
		}
		return c.Redirect(http.StatusFound, "/auth/sign-in")
	}
}

func signIn(cfg types.Config) echo.HandlerFunc {
	return func(c echo.Context) error {
		return render(c, 200, views.SignInForm(types.NewFormData(cfg)))
	}
}

func signInWithEmailAndPassword(db *gorm.DB, cfg types.Config) echo.HandlerFunc {
	return func(c echo.Context) error {
		fail := func(err error) error {
			if wantsJSON(c) {
				return c.JSON(http.StatusUnauthorized, errorBody{Error: err.Error()})
			}
			return render(c, 422, views.SignInForm(types.NewFormData(cfg).WithError(err)))
		}

		var req signInRequest
		if err := c.Bind(&req); err != nil {
			return fail(fmt.Errorf("Invalid sign in request"))
		}

		parsed, err := mail.ParseAddress(req.Email)
		if err != nil {
			return fail(fmt.Errorf("Invalid email"))
		}

		var user types.User
		db.First(&user, "email = ?", parsed.Address)
		if compareErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); compareErr != nil {
			return fail(fmt.Errorf("Invalid email or password"))
		}

		sess, _ := session.Get(SessionKey, c)
		sess.Options = &sessions.Options{
			Path:     "/",
			MaxAge:   3600 * 24 * 365,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		}

		sess.Values[SessionUserIDKey] = user.ID

		err = sess.Save(c.Request(), c.Response())
		if err != nil {
			return errors.Wrap(err, "Saving session")
		}

		if wantsJSON(c) {
			return c.JSON(http.StatusOK, userBody{User: user.Public()})
		}
		return c.Redirect(http.StatusFound, "/")
	}
}

func signOut() echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := expireSession(c); err != nil {
			return err
		}
		if wantsJSON(c) {
			return c.JSON(http.StatusOK, messageBody{Message: "Signed out"})
		}
		return c.Redirect(http.StatusFound, "/")
	}
}

// deleteAccount purges the caller's notes and then the account itself.
func deleteAccount(db *gorm.DB, svc *notes.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := GetSessionUser(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, errorBody{Error: "Unauthorized"})
		}

		deleted, err := svc.DeleteOwnerNotes(c.Request().Context(), user.Owner())
		if err != nil {
			return noteError(c, err)
		}

		if err := db.Unscoped().Delete(&user).Error; err != nil {
			return errors.Wrap(err, "Deleting user")
		}
		logrus.WithFields(logrus.Fields{"user": user.ID, "notes": deleted}).Info("Deleted account")

		if err := expireSession(c); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, messageBody{Message: "Account deleted"})
	}
}

func expireSession(c echo.Context) error {
	sess, _ := session.Get(SessionKey, c)
	sess.Options = &sessions.Options{Path: "/", MaxAge: -1, HttpOnly: true}
	delete(sess.Values, SessionUserIDKey)
	return errors.Wrap(sess.Save(c.Request(), c.Response()), "Saving session")
}

func describeFieldError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	name := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", name)
	case "min":
		return fmt.Errorf("%s must be at least %s characters", name, fe.Param())
	case "max":
		return fmt.Errorf("%s must be at most %s characters", name, fe.Param())
	}
	return fmt.Errorf("%s is invalid", name)
}
