package dispatch

import (
	"context"
	"fmt"

	"github.com/loykin/prnotify/internal/common"
	"github.com/loykin/prnotify/internal/pullrequest"
	"github.com/loykin/prnotify/internal/render"
	"github.com/loykin/prnotify/internal/settings"
	"github.com/loykin/prnotify/internal/store"
)

// PressResult is the outcome of a button press.
type PressResult struct {
	// RedirectURL is the rendered redirect of the button, or "".
	RedirectURL string                       `json:"redirectUrl,omitempty"`
	Responses   []store.NotificationResponse `json:"responses"`
}

// PressButton runs the BUTTON_TRIGGER notifications for the button with the
// given uuid. formData is passed on as BUTTON_FORM_DATA.
func (d *Dispatcher) PressButton(ctx context.Context, buttonUUID string, ev pullrequest.Event, formData string) (*PressResult, error) {
	st, err := d.Settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	var button *settings.Button
	for i := range st.Buttons {
		if st.Buttons[i].UUID == buttonUUID {
			button = &st.Buttons[i]
			break
		}
	}
	if button == nil {
		return nil, fmt.Errorf("button %s: %w", buttonUUID, settings.ErrNotFound)
	}
	if !button.MatchesRepository(ev.PullRequest.ToRef.Repository) {
		return nil, fmt.Errorf("button %s is not available for %s/%s: %w", button.Name,
			ev.PullRequest.ToRef.Repository.Project.Key, ev.PullRequest.ToRef.Repository.Slug, settings.ErrNotFound)
	}

	ev.Action = pullrequest.ActionButtonTrigger
	trust := d.snapshot(st.Data)
	base := render.NewEvalContext(ev, nil, d.Platform).WithButton(button.Name, formData)

	common.GetLogger().WithComponent("dispatch").Info("button pressed",
		"button", button.Name, "uuid", button.UUID, "pull_request", ev.PullRequest.ID)

	res := &PressResult{Responses: d.dispatchAll(ctx, st.Notifications, ev, base, trust)}
	if button.RedirectURL != "" {
		redirect, err := render.New(base, d.Invoker, trust).Render(ctx, button.RedirectURL, render.EncodingURL)
		if err != nil {
			return res, fmt.Errorf("render redirect url: %w", err)
		}
		res.RedirectURL = redirect
	}
	return res, nil
}
