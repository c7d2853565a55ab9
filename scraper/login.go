package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/use-agent/workana-scraper/config"
	"github.com/use-agent/workana-scraper/dom"
	"github.com/use-agent/workana-scraper/models"
)

// LoginState is a state of the login state machine.
type LoginState int

const (
	StateStart LoginState = iota
	StateNavigateLogin
	StateDismissConsent
	StateFillCredentials
	StateSubmit
	StateWaitAuthenticated
	StateAuthenticated
	StateFailed
)

var loginStateNames = [...]string{
	StateStart:             "start",
	StateNavigateLogin:     "navigate_login",
	StateDismissConsent:    "dismiss_consent",
	StateFillCredentials:   "fill_credentials",
	StateSubmit:            "submit",
	StateWaitAuthenticated: "wait_authenticated",
	StateAuthenticated:     "authenticated",
	StateFailed:            "failed",
}

func (s LoginState) String() string {
	if s >= 0 && int(s) < len(loginStateNames) {
		return loginStateNames[s]
	}
	return fmt.Sprintf("LoginState(%d)", int(s))
}

// Authenticator drives the login form of the marketplace.
// FAILED is terminal: there is no retry; callers start a fresh session.
type Authenticator struct {
	site   Site
	timing Timing
	creds  config.Credentials

	// observe, when set, is told about every state entered.
	observe func(LoginState)
}

// NewAuthenticator creates an Authenticator for one account.
func NewAuthenticator(site Site, timing Timing, creds config.Credentials) *Authenticator {
	return &Authenticator{site: site, timing: timing, creds: creds}
}

type loginStep struct {
	state LoginState
	run   func(ctx context.Context, page dom.Page) error
}

// Login runs START → NAVIGATE_LOGIN → [DISMISS_CONSENT] → FILL_CREDENTIALS →
// SUBMIT → WAIT_AUTHENTICATED and ends in AUTHENTICATED or FAILED.
func (a *Authenticator) Login(ctx context.Context, page dom.Page) error {
	steps := []loginStep{
		{StateNavigateLogin, a.navigateLogin},
		{StateDismissConsent, a.dismissConsent},
		{StateFillCredentials, a.fillCredentials},
		{StateSubmit, a.submit},
		{StateWaitAuthenticated, a.waitAuthenticated},
	}

	a.enter(StateStart)
	for _, step := range steps {
		a.enter(step.state)
		if err := step.run(ctx, page); err != nil {
			a.enter(StateFailed)
			return err
		}
	}
	a.enter(StateAuthenticated)
	slog.Info("logged in to marketplace")
	return nil
}

func (a *Authenticator) enter(s LoginState) {
	slog.Debug("login state", "state", s.String())
	if a.observe != nil {
		a.observe(s)
	}
}

func (a *Authenticator) navigateLogin(ctx context.Context, page dom.Page) error {
	navCtx, cancel := context.WithTimeout(ctx, a.timing.PageLoad)
	defer cancel()

	if err := page.Navigate(navCtx, a.site.LoginURL, dom.NetworkIdle); err != nil {
		return categorizeError(err, models.ErrCodeLoginTimeout, models.StepNavigateLogin,
			"login page did not finish loading")
	}
	return nil
}

// dismissConsent is optional: a missing banner within the bounded wait leaves
// the state machine unchanged.
func (a *Authenticator) dismissConsent(ctx context.Context, page dom.Page) error {
	consentCtx, cancel := context.WithTimeout(ctx, a.timing.Consent)
	defer cancel()

	err := page.Click(consentCtx, a.site.Consent)
	switch {
	case err == nil:
		slog.Debug("consent banner dismissed")
		if err := sleep(ctx, a.timing.ConsentSettle); err != nil {
			return categorizeError(err, models.ErrCodeLoginTimeout, models.StepDismissConsent,
				"login aborted while the consent banner was closing")
		}
		return nil
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		slog.Debug("consent banner not present", "wait", a.timing.Consent)
		return nil
	default:
		return categorizeError(err, models.ErrCodeLoginTimeout, models.StepDismissConsent,
			"consent banner could not be dismissed")
	}
}

func (a *Authenticator) fillCredentials(ctx context.Context, page dom.Page) error {
	fillCtx, cancel := context.WithTimeout(ctx, a.timing.PageLoad)
	defer cancel()

	if err := page.Type(fillCtx, a.site.EmailInput, a.creds.Email); err != nil {
		return categorizeError(err, models.ErrCodeLoginTimeout, models.StepFillCredentials,
			"email input not available")
	}
	if err := page.Type(fillCtx, a.site.PasswordIn, a.creds.Password); err != nil {
		return categorizeError(err, models.ErrCodeLoginTimeout, models.StepFillCredentials,
			"password input not available")
	}
	return nil
}

func (a *Authenticator) submit(ctx context.Context, page dom.Page) error {
	submitCtx, cancel := context.WithTimeout(ctx, a.timing.PageLoad)
	defer cancel()

	if err := page.Click(submitCtx, a.site.Submit); err != nil {
		return categorizeError(err, models.ErrCodeLoginTimeout, models.StepSubmit,
			"login form could not be submitted")
	}
	return nil
}

// waitAuthenticated is the sole login-failure signal: wrong credentials, an
// outage and a markup change all look like this timeout.
func (a *Authenticator) waitAuthenticated(ctx context.Context, page dom.Page) error {
	waitCtx, cancel := context.WithTimeout(ctx, a.timing.Login)
	defer cancel()

	if err := page.WaitFor(waitCtx, a.site.LoggedInMark); err != nil {
		return categorizeError(err, models.ErrCodeLoginTimeout, models.StepWaitAuthenticated,
			fmt.Sprintf("login failed: %s did not appear within %s", a.site.LoggedInMark, a.timing.Login))
	}
	return nil
}
