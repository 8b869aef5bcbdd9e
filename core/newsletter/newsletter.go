package newsletter

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/mail"
	"strconv"
	"time"

	"github.com/prologin/gccsite/core"
)

var (
	ErrNotFound          = core.NewNotFoundError("email is not subscribed")
	ErrAlreadySubscribed = core.NewConflictError("email is already subscribed")
	ErrBadToken          = core.NewPermissionError("invalid unsubscribe token")
)

// Subscriber is one email address on the newsletter list. Subscription is
// open to anyone, not just registered users.
type Subscriber struct {
	ID        int       `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// UnsubscribeToken derives the capability embedded in unsubscribe links:
// knowing it proves control of the original subscription without
// requiring an account.
func (s Subscriber) UnsubscribeToken(secretKey string) string {
	sum := sha256.Sum256([]byte(strconv.Itoa(s.ID) + secretKey))
	return hex.EncodeToString(sum[:])[:32]
}

type (
	Repository interface {
		GetSubscriberByID(ctx context.Context, id int, exec ...core.DBExecutor) (Subscriber, error)
		GetSubscriberByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (Subscriber, error)
		CreateSubscriber(ctx context.Context, sub Subscriber, exec ...core.DBExecutor) (Subscriber, error)
		DeleteSubscriber(ctx context.Context, id int, exec ...core.DBExecutor) error
	}

	Service struct {
		repo      Repository
		secretKey string
		mailSvc   core.EmailService
	}
)

func NewService(repo Repository, secretKey string, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, secretKey: secretKey, mailSvc: mailSvc}
}

// Subscribe registers the email on the list and sends the welcome mail
// carrying the unsubscribe link; subscribing twice is a conflict.
func (svc *Service) Subscribe(ctx context.Context, email string) (Subscriber, error) {
	email = core.CleanString(email, true)
	if _, err := svc.repo.GetSubscriberByEmail(ctx, email); err == nil {
		return Subscriber{}, ErrAlreadySubscribed
	} else if !core.IsNotFound(err) {
		return Subscriber{}, err
	}
	sub, err := svc.repo.CreateSubscriber(ctx, Subscriber{Email: email})
	if err != nil {
		return Subscriber{}, err
	}
	if svc.mailSvc != nil {
		svc.mailSvc.SendMessages(&core.EmailMessage{
			To:           []mail.Address{{Address: sub.Email}},
			Subject:      "Welcome to the newsletter",
			TemplateName: "newsletter-welcome",
			TemplateData: struct {
				Email          string
				UnsubscribeURL string
			}{sub.Email, svc.UnsubscribeURL(core.Conf.FrontendBaseURL, sub)},
		})
	}
	return sub, nil
}

// Unsubscribe removes the subscriber, provided the caller presents the
// token from their unsubscribe link.
func (svc *Service) Unsubscribe(ctx context.Context, id int, token string) error {
	sub, err := svc.repo.GetSubscriberByID(ctx, id)
	if err != nil {
		return err
	}
	want := sub.UnsubscribeToken(svc.secretKey)
	if subtle.ConstantTimeCompare([]byte(token), []byte(want)) != 1 {
		return ErrBadToken
	}
	return svc.repo.DeleteSubscriber(ctx, sub.ID)
}

// UnsubscribeURL builds the self-service link embedded in every mailing.
func (svc *Service) UnsubscribeURL(baseURL string, sub Subscriber) string {
	return baseURL + "/newsletter/unsubscribe/" + strconv.Itoa(sub.ID) + "/" + sub.UnsubscribeToken(svc.secretKey)
}
