package echoapi

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/prologin/gccsite/core"
	"github.com/prologin/gccsite/core/applicant"
	"github.com/prologin/gccsite/core/form"
)

var orderingParam = "ordering"

// Ordering binds the "ordering" query parameter: comma-separated field
// names, a "-" prefix for descending.
type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

type (
	LoginURLResponse struct {
		URL string `json:"url"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}

	// ApplicationResponse is the self-service view of one application:
	// the aggregate plus its derived status, the rejection predicates the
	// frontend branches on, and the questionnaire prefilled with the
	// existing answers.
	ApplicationResponse struct {
		Applicant             applicant.Applicant `json:"applicant"`
		Status                string              `json:"status"`
		IsLocked              bool                `json:"is_locked"`
		HasRejectedChoices    bool                `json:"has_rejected_choices"`
		HasNonRejectedChoices bool                `json:"has_non_rejected_choices"`
		Fields                []form.Field        `json:"fields"`
	}

	AnswersRequest struct {
		// question id -> submitted value
		Answers map[string]interface{} `json:"answers"`
	}

	// WishesRequest carries the three priority slots; an empty slot
	// clears the corresponding wish.
	WishesRequest struct {
		Priority1 string `json:"priority1"`
		Priority2 string `json:"priority2"`
		Priority3 string `json:"priority3"`
	}

	WishStatusRequest struct {
		Status string `json:"status" validate:"required"`
	}

	LabelRequest struct {
		Display string `json:"display" validate:"required,max=10"`
	}

	SubscribeRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	CounterResponse struct {
		Count int `json:"count"`
	}
)

func (r WishesRequest) EventIDs() []string {
	return []string{r.Priority1, r.Priority2, r.Priority3}
}

func (r SubscribeRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}

func (r WishStatusRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}

func (r LabelRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}
