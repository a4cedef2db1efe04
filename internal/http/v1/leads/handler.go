// Package leads exposes lead submission and listing over HTTP.
package leads

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/janisto/lead-intake/internal/platform/auth"
	applog "github.com/janisto/lead-intake/internal/platform/logging"
	"github.com/janisto/lead-intake/internal/platform/pagination"
	"github.com/janisto/lead-intake/internal/platform/timeutil"
	"github.com/janisto/lead-intake/internal/service/lead"
)

const cursorType = "lead"

// Submitter runs a submission through validation, storage and enrichment.
type Submitter interface {
	Submit(ctx context.Context, sess lead.Session, s lead.Submission) (*lead.Lead, error)
}

// Options tunes route registration.
type Options struct {
	// ListAuth puts GET /leads behind bearer authentication.
	ListAuth bool
}

// Register wires lead routes into the provided API router.
func Register(api huma.API, store lead.Store, submitter Submitter, prefix string, opts Options) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-lead",
		Method:        http.MethodPost,
		Path:          "/leads",
		Summary:       "Submit a scheduling request",
		Description:   "Validates the caller's request, stores it and enriches it with the current USD to EUR rate and a short fun fact. Enrichment failures never fail the request.",
		Tags:          []string{"Leads"},
		DefaultStatus: http.StatusOK,
	}, func(ctx context.Context, input *LeadCreateInput) (*LeadCreateOutput, error) {
		sess, err := store.Open(ctx)
		if err != nil {
			applog.LogError(ctx, "opening lead session failed", err)
			return nil, huma.Error500InternalServerError("internal error")
		}
		defer closeSession(ctx, sess)

		created, err := submitter.Submit(ctx, sess, toSubmission(input.Body))
		if err != nil {
			return nil, mapSubmitError(err)
		}

		return &LeadCreateOutput{Body: CreateResult{Status: "ok", ID: created.ID}}, nil
	})

	listOp := huma.Operation{
		OperationID: "list-leads",
		Method:      http.MethodGet,
		Path:        "/leads",
		Summary:     "List leads, newest first",
		Description: "Returns every stored lead. Pass limit to page through the list with the cursor from the Link header.",
		Tags:        []string{"Leads"},
	}
	if opts.ListAuth {
		listOp.Security = auth.Required
	}
	huma.Register(api, listOp, func(ctx context.Context, input *LeadListInput) (*LeadListOutput, error) {
		sess, err := store.Open(ctx)
		if err != nil {
			applog.LogError(ctx, "opening lead session failed", err)
			return nil, huma.Error500InternalServerError("internal error")
		}
		defer closeSession(ctx, sess)

		all, err := sess.ListAll(ctx)
		if err != nil {
			applog.LogError(ctx, "listing leads failed", err)
			return nil, huma.Error500InternalServerError("internal error")
		}

		page := pagination.Page[lead.Lead]{Items: all}
		if input.Paged() {
			page, err = pagination.Paginate(all, input.Params, cursorType, leadKey)
			if err != nil {
				return nil, huma.Error400BadRequest("invalid cursor")
			}
		}

		body := make([]Lead, 0, len(page.Items))
		for _, l := range page.Items {
			body = append(body, toLead(l))
		}
		return &LeadListOutput{
			Link: pagination.NextLink(prefix+"/leads", url.Values{}, input.Params, page),
			Body: body,
		}, nil
	})
}

func leadKey(l lead.Lead) string {
	return strconv.FormatInt(l.ID, 10)
}

func closeSession(ctx context.Context, sess lead.Session) {
	if err := sess.Close(); err != nil {
		applog.LogWarn(ctx, "closing lead session failed", zap.Error(err))
	}
}

func mapSubmitError(err error) error {
	var verr *lead.ValidationError
	if errors.As(err, &verr) {
		details := make([]error, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			details = append(details, &huma.ErrorDetail{
				Location: "body." + f.Field,
				Message:  f.Code + ": " + f.Message,
				Value:    f.Value,
			})
		}
		return huma.Error422UnprocessableEntity("validation failed", details...)
	}
	return huma.Error500InternalServerError("internal error")
}

func toSubmission(b LeadCreateBody) lead.Submission {
	return lead.Submission{
		Name:           b.Name,
		Phone:          b.Phone,
		PreferredStart: b.PreferredStart,
		PreferredEnd:   b.PreferredEnd,
		Reason:         b.Reason,
		UTCOffset:      b.UTCOffset,
		CallID:         b.CallID,
	}
}

func toLead(l lead.Lead) Lead {
	return Lead{
		ID:              l.ID,
		Name:            l.Name,
		Phone:           l.Phone,
		NormalizedPhone: l.NormalizedPhone,
		PreferredStart:  l.PreferredStart,
		PreferredEnd:    l.PreferredEnd,
		Reason:          l.Reason,
		UTCOffset:       l.UTCOffset,
		CallID:          l.CallID,
		CreatedAt:       timeutil.NewTime(l.CreatedAt),
		FXUSDEUR:        l.FXUSDEUR,
		FunFactShort:    l.FunFactShort,
	}
}
