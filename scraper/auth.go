package scraper

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/TheFoxKD/CalendarMTUSI/browser"
)

// Login page and authenticated-layout selectors.
const (
	loginFormSelector       = "#kc-form-login"
	usernameSelector        = "#username"
	passwordSelector        = "#password"
	submitSelector          = "#login-submit-button"
	usernameDisplaySelector = ".user-panel h4"
)

var authenticatedLayoutSelectors = []string{
	"#side-menu",
	".user-panel",
	"#main-menu",
}

var loginErrorSelectors = []string{
	".alert-error",
	".alert-danger",
	"#error-message",
	".kc-feedback-text",
}

const (
	formElementTimeout      = 10 * time.Second
	submitNavigationTimeout = 20 * time.Second
	fieldFillRetries        = 3
)

// Floating banner shown on the page while logging in. Cosmetic only.
const statusBannerScript = `(message) => {
    let status = document.getElementById('auth-status');
    if (!status) {
        status = document.createElement('div');
        status.id = 'auth-status';
        status.style.cssText = 'position: fixed; top: 20px; left: 20px;' +
            ' background: rgba(0, 0, 0, 0.8); color: white; padding: 15px 20px;' +
            ' border-radius: 5px; z-index: 9999; font-family: Arial, sans-serif;' +
            ' font-size: 14px;';
        document.body.appendChild(status);
    }
    status.textContent = message;
}`

// Authenticator drives the portal login form. The login state is read off
// page content, not the URL, because the portal serves the login form under
// several addresses.
type Authenticator struct {
	page     browser.Page
	email    string
	password string
	loginURL string
	timeout  time.Duration
	log      *zap.Logger

	sleep func(time.Duration)
}

func NewAuthenticator(page browser.Page, email, password, loginURL string, timeout time.Duration, log *zap.Logger) *Authenticator {
	return &Authenticator{
		page:     page,
		email:    email,
		password: password,
		loginURL: loginURL,
		timeout:  timeout,
		log:      log,
		sleep:    time.Sleep,
	}
}

// CheckAuthState determines the login state from page content. Ordered
// checks, first match wins: authenticated layout markers, then the login
// form, then the username display. Callers treat Unknown as unauthenticated.
func (a *Authenticator) CheckAuthState() AuthState {
	for _, sel := range authenticatedLayoutSelectors {
		el, err := a.page.QuerySelector(sel)
		if err != nil {
			a.log.Warn("error checking auth marker",
				zap.String("selector", sel), zap.Error(err))
			continue
		}
		if el != nil {
			a.log.Debug("authenticated layout marker found", zap.String("selector", sel))
			return AuthAuthenticated
		}
	}

	if el, err := a.page.QuerySelector(loginFormSelector); err == nil && el != nil {
		return AuthUnauthenticated
	}

	if el, err := a.page.QuerySelector(usernameDisplaySelector); err == nil && el != nil {
		return AuthAuthenticated
	}

	a.log.Warn("auth state ambiguous")
	return AuthUnknown
}

// Authenticate logs in to the portal. A page already in an authenticated
// state is a no-op.
func (a *Authenticator) Authenticate() error {
	if a.CheckAuthState() == AuthAuthenticated {
		a.log.Info("already authenticated")
		return nil
	}

	a.log.Info("starting authentication")
	a.showStatus("Начинаем процесс авторизации...")

	if err := a.page.Goto(a.loginURL, browser.WaitNetworkIdle, a.timeout); err != nil {
		return &Error{Code: ErrAuthTimeout.Code, Message: "login page did not load", Err: err}
	}
	if err := a.verifyFormElements(); err != nil {
		return err
	}
	if err := a.fillField(usernameSelector, a.email, "username"); err != nil {
		return err
	}
	if err := a.fillField(passwordSelector, a.password, "password"); err != nil {
		return err
	}
	if err := a.submit(); err != nil {
		return err
	}
	if err := a.validateResult(); err != nil {
		a.showStatus("Ошибка авторизации")
		return err
	}

	a.showStatus("Авторизация успешна!")
	a.log.Info("authentication successful")
	return nil
}

// verifyFormElements waits for the three required controls to be visible.
// A missing submit control gets its own error code; the text fields report
// which field was absent.
func (a *Authenticator) verifyFormElements() error {
	fields := []struct {
		name     string
		selector string
	}{
		{"username", usernameSelector},
		{"password", passwordSelector},
		{"submit", submitSelector},
	}

	for _, f := range fields {
		if _, err := a.page.WaitForSelector(f.selector, formElementTimeout); err != nil {
			if f.name == "submit" {
				return &Error{Code: ErrSubmitNotFound.Code, Message: "submit button not found", Err: err}
			}
			return FormElementNotFound(f.name, err)
		}
	}
	return nil
}

// fillField clears and types a field, retrying transient driver errors.
func (a *Authenticator) fillField(selector, value, name string) error {
	var lastErr error
	for attempt := 0; attempt < fieldFillRetries; attempt++ {
		field, err := a.page.QuerySelector(selector)
		switch {
		case err != nil:
			lastErr = err
		case field == nil:
			// keep lastErr from the previous attempt
		default:
			if err := fillElement(field, value); err != nil {
				lastErr = err
			} else {
				return nil
			}
		}
		a.sleep(time.Second)
	}
	return FieldFillError(name, lastErr)
}

// fillElement focuses the field, clears any prefilled value and types anew.
func fillElement(field browser.Element, value string) error {
	if err := field.Click(); err != nil {
		return err
	}
	if err := field.Press("Control+A"); err != nil {
		return err
	}
	if err := field.Press("Backspace"); err != nil {
		return err
	}
	return field.Fill(value)
}

func (a *Authenticator) submit() error {
	button, err := a.page.QuerySelector(submitSelector)
	if err != nil || button == nil {
		return &Error{Code: ErrSubmitNotFound.Code, Message: "submit button not found", Err: err}
	}
	if err := a.page.WaitForNavigation(submitNavigationTimeout, button.Click); err != nil {
		return &Error{Code: ErrAuthTimeout.Code, Message: "no navigation after submit", Err: err}
	}
	return nil
}

// validateResult scans the known error banners, then re-checks the auth
// state after a short settle.
func (a *Authenticator) validateResult() error {
	for _, sel := range loginErrorSelectors {
		el, err := a.page.QuerySelector(sel)
		if err != nil || el == nil {
			continue
		}
		msg, err := el.TextContent()
		if err != nil {
			continue
		}
		if msg = strings.TrimSpace(msg); msg != "" {
			return LoginFailed(msg)
		}
	}

	a.sleep(2 * time.Second)
	if a.CheckAuthState() != AuthAuthenticated {
		return &Error{Code: ErrAuthStateUnverified.Code, Message: "authenticated state not reached after login"}
	}
	return nil
}

// showStatus updates the on-page banner. Failures only get a debug line;
// the banner never affects control flow.
func (a *Authenticator) showStatus(message string) {
	if _, err := a.page.Evaluate(statusBannerScript, message); err != nil {
		a.log.Debug("status banner update failed", zap.Error(err))
	}
}
