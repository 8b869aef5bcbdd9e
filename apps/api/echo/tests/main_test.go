package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	. "github.com/prologin/gccsite/apps/api/echo"
	"github.com/prologin/gccsite/core"
	"github.com/prologin/gccsite/core/applicant"
	"github.com/prologin/gccsite/core/edition"
	"github.com/prologin/gccsite/core/form"
	"github.com/prologin/gccsite/core/newsletter"
	"github.com/prologin/gccsite/core/review"
	"github.com/prologin/gccsite/core/sponsor"
	"github.com/prologin/gccsite/core/user"
	emailsvc "github.com/prologin/gccsite/services/email"
	logsvc "github.com/prologin/gccsite/services/logger"
	inmemdb "github.com/prologin/gccsite/storage/database/inmem"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

func TestMain(m *testing.M) {
	_ = os.Setenv("ENV", "TEST")
	_ = os.Setenv("TEST_DEBUG", "false")
	core.LoadConfig()

	os.Exit(m.Run())
}

type fixture struct {
	app Server

	usrRepo  user.Repository
	edRepo   edition.Repository
	formRepo form.Repository
	revRepo  review.Repository

	usrSvc  *user.Service
	edSvc   *edition.Service
	formSvc *form.Service
	revSvc  *review.Service
	appSvc  *applicant.Service
	newsSvc *newsletter.Service
	spSvc   *sponsor.Service
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db := inmemdb.NewDB()
	f := &fixture{
		usrRepo:  inmemdb.NewUserRepository(db),
		edRepo:   inmemdb.NewEditionRepository(db),
		formRepo: inmemdb.NewFormRepository(db),
		revRepo:  inmemdb.NewReviewRepository(db),
	}

	f.usrSvc = user.NewService(f.usrRepo, core.NewValidator())
	f.edSvc = edition.NewService(f.edRepo)
	f.formSvc = form.NewService(f.formRepo)
	f.revSvc = review.NewService(f.revRepo)
	rules := review.NewRules(f.revRepo)
	f.appSvc = applicant.NewService(nil, inmemdb.NewApplicantRepository(db), f.edSvc, f.formSvc, f.revSvc, rules)
	f.newsSvc = newsletter.NewService(inmemdb.NewNewsletterRepository(db), core.Conf.SecretKey, nil)
	f.spSvc = sponsor.NewService(inmemdb.NewSponsorRepository(db))

	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags), core.Conf)
	logger.Enable(false)

	f.app = NewServer(
		&Options{
			DisableReqLogs: true,
			Logger:         logger,
			MailSvc:        emailsvc.NewConsoleServiceMock(),
			UserSvc:        f.usrSvc,
			EditionSvc:     f.edSvc,
			ApplicantSvc:   f.appSvc,
			ReviewSvc:      f.revSvc,
			Rules:          rules,
			NewsletterSvc:  f.newsSvc,
			SponsorSvc:     f.spSvc,
		},
		nil, /* shutdown */
	)
	return f
}

// createEdition seeds an edition with a signup form holding one
// finally-required question, plus an event open for signup.
func (f *fixture) createEdition(t *testing.T, year int) (edition.Edition, edition.Event, form.Question) {
	t.Helper()
	ctx := context.Background()

	signupForm, err := f.formRepo.CreateForm(ctx, form.Form{Name: "signup"})
	if err != nil {
		t.Fatalf("createEdition() failed: %v", err)
	}
	q, err := f.formRepo.CreateQuestion(ctx, form.Question{
		Label:           "Why do you want to join?",
		ResponseType:    form.Text,
		AlwaysRequired:  true,
		FinallyRequired: true,
	})
	if err != nil {
		t.Fatalf("createEdition() failed: %v", err)
	}
	if err = f.formRepo.AppendQuestionToForm(ctx, signupForm.ID, q.ID, 1); err != nil {
		t.Fatalf("createEdition() failed: %v", err)
	}

	ed, err := f.edRepo.CreateEdition(ctx, edition.Edition{Year: year, SignupFormID: signupForm.ID})
	if err != nil {
		t.Fatalf("createEdition() failed: %v", err)
	}
	now := time.Now()
	ev, err := f.edRepo.CreateEvent(ctx, edition.Event{
		EditionYear: year,
		Center:      edition.Center{Name: "Paris", City: "Paris"},
		EventStart:  now.Add(30 * 24 * time.Hour),
		EventEnd:    now.Add(37 * 24 * time.Hour),
		SignupStart: now.Add(-24 * time.Hour),
		SignupEnd:   now.Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("createEdition() failed: %v", err)
	}
	return ed, ev, q
}

func (f *fixture) createUser(t *testing.T, id int, uname string, isStaff bool) user.User {
	t.Helper()
	usr := user.User{
		ID:         id,
		Username:   uname,
		Email:      uname + "@test.fr",
		IsStaff:    isStaff,
		IsActive:   true,
		Phone:      "+33600000000",
		Birthday:   time.Date(2010, 5, 17, 0, 0, 0, 0, time.UTC),
		Address:    "1 rue de la Paix",
		City:       "Paris",
		PostalCode: "75002",
		Country:    "France",
	}
	usr, err := f.usrRepo.UpsertUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if tt.wantCode == 0 {
		tt.wantCode = http.StatusOK
	}
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
