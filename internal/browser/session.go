package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bytedance/sonic"

	"github.com/kedrpeek/Voice-RVC/internal/metrics"
	"github.com/kedrpeek/Voice-RVC/internal/poll"
)

// SessionConfig identifies the browser instance and page to drive.
type SessionConfig struct {
	// DebuggerAddr is the host:port of Chrome's remote debugging endpoint.
	DebuggerAddr string
	// PageURL is the address the TTS web UI is served on; used to pick the
	// right page target.
	PageURL string
}

// Session is the UI adapter over one attached page. Selectors are opaque
// XPath strings supplied by configuration; the session never assumes
// anything about the page beyond them.
type Session struct {
	client *Client
	waiter poll.Waiter
	logger *slog.Logger
}

// Connect attaches to the configured page and returns a ready session.
func Connect(ctx context.Context, cfg SessionConfig, pollInterval time.Duration, logger *slog.Logger, m *metrics.Metrics) (*Session, error) {
	client, err := Dial(ctx, cfg.DebuggerAddr, cfg.PageURL, logger, m)
	if err != nil {
		return nil, err
	}
	return &Session{
		client: client,
		waiter: poll.NewWaiter(pollInterval),
		logger: logger,
	}, nil
}

// Prepare routes browser downloads into downloadDir for the rest of the
// session.
func (s *Session) Prepare(ctx context.Context, downloadDir string) error {
	params := setDownloadBehaviorParams{Behavior: "allow", DownloadPath: downloadDir}
	if err := s.client.Call(ctx, "Page.setDownloadBehavior", params, nil); err != nil {
		return fmt.Errorf("failed to set download directory: %w", err)
	}
	s.logger.Info("Browser download directory configured", slog.String("dir", downloadDir))
	return nil
}

// Locate reports whether the selector currently resolves to an element.
func (s *Session) Locate(ctx context.Context, selector string) (bool, error) {
	var found bool
	expr := fmt.Sprintf("(function(){return %s !== null;})()", nodeExpr(selector))
	if err := s.eval(ctx, expr, &found); err != nil {
		return false, err
	}
	return found, nil
}

// SetValue replaces the element's value with text, as if it had been typed.
func (s *Session) SetValue(ctx context.Context, selector, text string) error {
	quoted, err := sonic.MarshalString(text)
	if err != nil {
		return fmt.Errorf("failed to encode input text: %w", err)
	}
	expr := fmt.Sprintf(`(function(){
		var el = %s;
		if (!el) return false;
		el.scrollIntoView(true);
		el.value = "";
		el.value = %s;
		return true;
	})()`, nodeExpr(selector), quoted)

	var found bool
	if err := s.eval(ctx, expr, &found); err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("element not found: %s", selector)
	}
	return nil
}

// NotifyInputChanged dispatches a bubbling input event so the page reacts to
// the value set by SetValue the way it would to human typing.
func (s *Session) NotifyInputChanged(ctx context.Context, selector string) error {
	expr := fmt.Sprintf(`(function(){
		var el = %s;
		if (!el) return false;
		el.dispatchEvent(new Event('input', { bubbles: true }));
		return true;
	})()`, nodeExpr(selector))

	var found bool
	if err := s.eval(ctx, expr, &found); err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("element not found: %s", selector)
	}
	return nil
}

// Click scrolls the element into view and clicks it.
func (s *Session) Click(ctx context.Context, selector string) error {
	expr := fmt.Sprintf(`(function(){
		var el = %s;
		if (!el) return false;
		el.scrollIntoView(true);
		el.click();
		return true;
	})()`, nodeExpr(selector))

	var found bool
	if err := s.eval(ctx, expr, &found); err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("element not found: %s", selector)
	}
	return nil
}

// GetAttribute reads a property (falling back to the markup attribute) from
// the element. An absent element or attribute yields "" rather than an
// error, so callers can sample observables that only appear after
// generation.
func (s *Session) GetAttribute(ctx context.Context, selector, name string) (string, error) {
	quoted, err := sonic.MarshalString(name)
	if err != nil {
		return "", fmt.Errorf("failed to encode attribute name: %w", err)
	}
	expr := fmt.Sprintf(`(function(){
		var el = %s;
		if (!el) return "";
		var v = el[%s];
		if (v === undefined || v === null) v = el.getAttribute(%s);
		return (v === undefined || v === null) ? "" : String(v);
	})()`, nodeExpr(selector), quoted, quoted)

	var value string
	if err := s.eval(ctx, expr, &value); err != nil {
		return "", err
	}
	return value, nil
}

// WaitInteractable polls until the element is present, enabled and visible,
// or the ceiling elapses (poll.ErrTimeout). Transient evaluation failures
// count as "not yet interactable".
func (s *Session) WaitInteractable(ctx context.Context, selector string, ceiling time.Duration) error {
	expr := fmt.Sprintf(`(function(){
		var el = %s;
		return !!(el && !el.disabled && el.offsetParent !== null);
	})()`, nodeExpr(selector))

	return s.waiter.Until(ctx, ceiling, func(ctx context.Context) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		var ready bool
		if err := s.eval(ctx, expr, &ready); err != nil {
			s.logger.Debug("Interactability probe failed",
				slog.String("selector", selector),
				slog.String("error", err.Error()),
			)
			return false, nil
		}
		return ready, nil
	})
}

// Release detaches from the browser. The page and any in-flight generation
// are left untouched.
func (s *Session) Release() error {
	return s.client.Close()
}

// eval runs a script in the page and decodes its by-value result into out.
func (s *Session) eval(ctx context.Context, expr string, out any) error {
	var res evaluateResult
	params := evaluateParams{Expression: expr, ReturnByValue: true}
	if err := s.client.Call(ctx, "Runtime.evaluate", params, &res); err != nil {
		return err
	}
	if res.ExceptionDetails != nil {
		detail := res.ExceptionDetails.Text
		if res.ExceptionDetails.Exception != nil {
			detail = res.ExceptionDetails.Exception.Description
		}
		return fmt.Errorf("page script failed: %s", detail)
	}
	if out != nil && res.Result.Value != nil {
		if err := sonic.Unmarshal(res.Result.Value, out); err != nil {
			return fmt.Errorf("failed to decode script result: %w", err)
		}
	}
	return nil
}

// nodeExpr builds the XPath lookup for a selector.
func nodeExpr(selector string) string {
	quoted, err := sonic.MarshalString(selector)
	if err != nil {
		// Selectors come from configuration; a string always encodes.
		quoted = `""`
	}
	return fmt.Sprintf("document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue", quoted)
}
