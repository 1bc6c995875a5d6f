package memberauth

import (
	stderrors "errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
)

// RegisterAuthRoutes mounts the credential and profile endpoints. Everything
// under the guard requires a live session token; the rest stays open so
// members without credentials can bootstrap themselves.
func RegisterAuthRoutes[T any](app router.Router[T], controller *AuthController) {
	guard := controller.Auther.ProtectedRoute(
		controller.Config,
		controller.Auther.MakeClientRouteAuthErrorHandler(false),
	)

	app.Post("/register", controller.RegistrationCreate).SetName("register.post")
	app.Get("/activate", controller.Activate).SetName("activate.get")
	app.Post("/login", controller.LoginPost).SetName("sign-in.post")
	app.Post("/refresh", controller.RefreshPost).SetName("refresh.post")

	app.Post("/auth/forgot-password", controller.ForgotPassword).SetName("pwd-reset.post")
	app.Post("/auth/reset-password", controller.ResetPassword).SetName("pwd-reset-do.post")

	optional := controller.Auther.PassthroughRoute(controller.Config)

	app.Get("/health", controller.Health).SetName("health.get")
	app.Get("/status", optional(controller.Status)).SetName("status.get")

	app.Get("/profile", guard(controller.ProfileShow)).SetName("profile.get")
	app.Put("/profile/update", guard(controller.ProfileUpdate)).SetName("profile.put")
}

type AuthController struct {
	Debug         bool
	Logger        Logger
	Repo          RepositoryManager
	Config        Config
	Auth          Authenticator
	Auther        *RouteAuthenticator
	Register      *RegisterProfileHandler
	Activation    *ActivateProfileHandler
	ResetInit     *InitializePasswordResetHandler
	ResetFinalize *FinalizePasswordResetHandler
	ErrorHandler  func(c router.Context, err error) error
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:       defLogger{},
		ErrorHandler: WriteJSONError,
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auth == nil {
		panic("Missing Authenticator in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing RouteAuthenticator in auth controller...")
	}

	if c.Register == nil || c.Activation == nil || c.ResetInit == nil || c.ResetFinalize == nil {
		panic("Missing command handlers in auth controller...")
	}

	return c
}

func WithControllerLogger(l Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if l != nil {
			c.Logger = l
		}
		return c
	}
}

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func WithControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithControllerConfig(cfg Config) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Config = cfg
		return c
	}
}

func WithControllerAuth(auth Authenticator, auther *RouteAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auth = auth
		c.Auther = auther
		return c
	}
}

func WithControllerHandlers(
	register *RegisterProfileHandler,
	activation *ActivateProfileHandler,
	resetInit *InitializePasswordResetHandler,
	resetFinalize *FinalizePasswordResetHandler,
) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Register = register
		c.Activation = activation
		c.ResetInit = resetInit
		c.ResetFinalize = resetFinalize
		return c
	}
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Email
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body"))
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(ctx, err)
	}

	result, err := a.Auth.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		a.Logger.Error("login error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, result)
}

// RefreshRequest payload
type RefreshRequest struct {
	RefreshToken string `form:"refresh_token" json:"refresh_token"`
}

// Validate will run validation rules
func (r RefreshRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RefreshToken, validation.Required),
	)
}

func (a *AuthController) RefreshPost(ctx router.Context) error {
	payload := new(RefreshRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body"))
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(ctx, err)
	}

	token, err := a.Auth.Refresh(ctx.Context(), payload.RefreshToken)
	if err != nil {
		a.Logger.Error("refresh error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"token": token,
	})
}

// RegistrationCreatePayload is the request payload for new profiles
type RegistrationCreatePayload struct {
	FullName        string `form:"full_name" json:"full_name"`
	Email           string `form:"email" json:"email"`
	Phone           string `form:"phone" json:"phone"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
	ProfileImageURL string `form:"profile_image_url" json:"profile_image_url"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FullName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Phone, validation.Length(7, 20)),
		validation.Field(&r.Password, validation.Required, validation.Length(10, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.Length(10, 100),
			validation.By(ValidateStringEquals(r.Password)),
		),
		validation.Field(&r.ProfileImageURL, is.URL),
	)
}

func (a *AuthController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register profile parse payload", "error", err)
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body"))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register profile validate payload", "error", err)
		return a.validationError(ctx, err)
	}

	var res *RegisterProfileResponse
	req := RegisterProfileMessage{
		FullName:        payload.FullName,
		Email:           payload.Email,
		Phone:           payload.Phone,
		Password:        payload.Password,
		ProfileImageURL: payload.ProfileImageURL,
		OnResponse: func(resp *RegisterProfileResponse) {
			res = resp
		},
	}

	if err := a.Register.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("register profile error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, res.Profile)
}

func (a *AuthController) Activate(ctx router.Context) error {
	token := ctx.Query("token")

	var res *ActivateProfileResponse
	req := ActivateProfileMessage{
		Token: token,
		OnResponse: func(resp *ActivateProfileResponse) {
			res = resp
		},
	}

	if err := a.Activation.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("activate profile error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "Profile activated successfully",
		"profile": res.Profile,
	})
}

// ForgotPasswordPayload holds values for password reset requests
type ForgotPasswordPayload struct {
	Email string `form:"email" json:"email"`
}

// Validate will validate the payload
func (r ForgotPasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
	)
}

func (a *AuthController) ForgotPassword(ctx router.Context) error {
	payload := new(ForgotPasswordPayload)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body"))
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(ctx, err)
	}

	req := InitializePasswordResetMessage{
		Email: payload.Email,
	}

	if err := a.ResetInit.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("password reset initialize error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	// the response never discloses whether the address has an account
	return ctx.JSON(router.StatusOK, map[string]string{
		"message": "If that email exists, a reset link was sent",
	})
}

// ResetPasswordPayload carries the one-time token and the new credential
type ResetPasswordPayload struct {
	Token           string `form:"token" json:"token"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r ResetPasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
		validation.Field(
			&r.Password,
			validation.Required,
			validation.Length(10, 100),
		),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.Length(10, 100),
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AuthController) ResetPassword(ctx router.Context) error {
	payload := new(ResetPasswordPayload)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body"))
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(ctx, err)
	}

	req := FinalizePasswordResetMessage{
		Token:    payload.Token,
		Password: payload.Password,
	}

	if err := a.ResetFinalize.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("password reset finalize error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"message": "Password has been reset successfully",
	})
}

func (a *AuthController) Health(ctx router.Context) error {
	return ctx.JSON(router.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Status reports store health. Behind a passthrough guard it also echoes the
// session subject when the caller presented a valid token.
func (a *AuthController) Status(ctx router.Context) error {
	status := "ok"
	if err := a.Repo.Validate(); err != nil {
		status = "degraded"
	}

	payload := map[string]string{"status": status}
	if claims, ok := GetClaims(ctx.Context()); ok {
		payload["subject"] = claims.Subject()
	}

	return ctx.JSON(router.StatusOK, payload)
}

func (a *AuthController) ProfileShow(ctx router.Context) error {
	profile, err := a.currentProfile(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, profile.Public())
}

// UpdateProfilePayload carries the member-editable profile attributes
type UpdateProfilePayload struct {
	FullName        string `form:"full_name" json:"full_name"`
	Phone           string `form:"phone" json:"phone"`
	ProfileImageURL string `form:"profile_image_url" json:"profile_image_url"`
}

// Validate will validate the payload
func (r UpdateProfilePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FullName, validation.Length(1, 200)),
		validation.Field(&r.Phone, validation.Length(7, 20)),
		validation.Field(&r.ProfileImageURL, is.URL),
	)
}

func (a *AuthController) ProfileUpdate(ctx router.Context) error {
	profile, err := a.currentProfile(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	payload := new(UpdateProfilePayload)
	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body"))
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(ctx, err)
	}

	if payload.FullName != "" {
		profile.FullName = payload.FullName
	}
	if payload.Phone != "" {
		phone, perr := NormalizePhone(payload.Phone)
		if perr != nil {
			return a.ErrorHandler(ctx, perr)
		}
		profile.Phone = phone
	}
	if payload.ProfileImageURL != "" {
		profile.ProfileImageURL = payload.ProfileImageURL
	}

	updated, err := a.Repo.Profiles().Update(ctx.Context(), profile, repository.UpdateByID(profile.ID.String()))
	if err != nil {
		a.Logger.Error("profile update error", "error", err)
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update profile"))
	}

	return ctx.JSON(router.StatusOK, updated.Public())
}

func (a *AuthController) currentProfile(ctx router.Context) (*Profile, error) {
	claims, ok := GetRouterClaims(ctx, a.Config.GetContextKey())
	if !ok {
		return nil, goerrors.New("missing session claims", goerrors.CategoryAuth).
			WithCode(goerrors.CodeUnauthorized)
	}

	profile, err := a.Repo.Profiles().GetByEmail(ctx.Context(), claims.Subject())
	if err != nil {
		// A valid token whose subject no longer exists reads the same as no
		// identity at all. The profile may have been deleted after issuance.
		if goerrors.IsNotFound(err) {
			return nil, goerrors.New("missing session claims", goerrors.CategoryAuth).
				WithCode(goerrors.CodeUnauthorized)
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load profile")
	}

	return profile, nil
}

func (a *AuthController) validationError(ctx router.Context, err error) error {
	return ctx.JSON(router.StatusBadRequest, map[string]any{
		"error": map[string]any{
			"message":    "Validation failed",
			"category":   string(goerrors.CategoryValidation),
			"validation": FormatValidationErrorToMap(err),
		},
	})
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return stderrors.New("values must match")
		}
		return nil
	}
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field-to-message map for API responses
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var verrs validation.Errors
	if stderrors.As(err, &verrs) {
		for field, ferr := range verrs {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}

	out["payload"] = err.Error()
	return out
}
