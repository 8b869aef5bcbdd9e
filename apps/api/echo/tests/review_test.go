package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	echoapi "github.com/prologin/gccsite/apps/api/echo"
	"github.com/prologin/gccsite/core/applicant"
	"github.com/prologin/gccsite/core/review"
	"github.com/prologin/gccsite/core/user"
	emailsvc "github.com/prologin/gccsite/services/email"
)

// seedReview prepares a validated application waiting on one open event,
// with a staff corrector for it.
func seedReview(t *testing.T, f *fixture) (candidate, corrector user.User, app applicant.Applicant, eventID string) {
	t.Helper()
	ctx := context.Background()

	_, ev, q := f.createEdition(t, 2026)
	candidate = f.createUser(t, 1, "ada", false)
	corrector = f.createUser(t, 2, "staff", true)

	if _, err := f.revSvc.AddCorrector(ctx, corrector.ID, ev.ID); err != nil {
		t.Fatalf("AddCorrector() failed: %v", err)
	}
	if err := f.appSvc.SaveAnswers(ctx, candidate, 2026, map[string]interface{}{q.ID: "I love computers"}); err != nil {
		t.Fatalf("SaveAnswers() failed: %v", err)
	}
	if err := f.appSvc.SaveWishes(ctx, candidate, 2026, []string{ev.ID}); err != nil {
		t.Fatalf("SaveWishes() failed: %v", err)
	}
	if err := f.appSvc.Validate(ctx, candidate, 2026); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	app, err := f.appSvc.ForUserAndEdition(ctx, candidate, 2026)
	if err != nil {
		t.Fatalf("ForUserAndEdition() failed: %v", err)
	}
	return candidate, corrector, app, ev.ID
}

func Test_reviewApi_staffOnly(t *testing.T) {
	f := setup(t)
	candidate, _, _, _ := seedReview(t, f)
	forbidden := marchallObj(t, httpErr{Error: "permission denied"})

	tests := []httpTest{
		{name: "no token", path: "/v1/labels", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "labels", path: "/v1/labels", token: getToken(t, candidate), wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "applicants", path: "/v1/events/x/applicants", token: getToken(t, candidate), wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "counter", path: "/v1/events/x/counter", token: getToken(t, candidate), wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "export", path: "/v1/events/x/export", token: getToken(t, candidate), wantCode: http.StatusForbidden, wantData: forbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			f.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_reviewApi_labels(t *testing.T) {
	f := setup(t)
	_, corrector, app, _ := seedReview(t, f)
	token := getToken(t, corrector)

	// create
	req, rec := newAuthRequest(http.MethodPost, "/v1/labels", token, marchallObj(t, echoapi.LabelRequest{Display: "motivated"}))
	f.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST labels code = %v: %s", rec.Code, rec.Body.String())
	}
	var label review.Label
	if err := json.Unmarshal(rec.Body.Bytes(), &label); err != nil {
		t.Fatalf("decoding label: %v", err)
	}

	// blank display is rejected
	req, rec = newAuthRequest(http.MethodPost, "/v1/labels", token, marchallObj(t, echoapi.LabelRequest{}))
	f.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("POST labels (blank) code = %v; want %v", rec.Code, http.StatusBadRequest)
	}

	// query
	tt := httpTest{wantData: marchallList(t, label)}
	req, rec = newAuthRequest(http.MethodGet, "/v1/labels", token)
	f.app.ServeHTTP(rec, req)
	checkCodeAndData(t, tt, rec)

	// attach and detach
	req, rec = newAuthRequest(http.MethodPost, "/v1/applicants/"+app.ID+"/labels/"+label.ID, token)
	f.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST applicant label code = %v: %s", rec.Code, rec.Body.String())
	}
	var labeled applicant.Applicant
	if err := json.Unmarshal(rec.Body.Bytes(), &labeled); err != nil {
		t.Fatalf("decoding applicant: %v", err)
	}
	if !labeled.HasLabel(label.ID) {
		t.Error("HasLabel() = false after POST")
	}

	req, rec = newAuthRequest(http.MethodPost, "/v1/applicants/"+app.ID+"/labels/"+label.ID, token)
	f.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Errorf("POST applicant label (again) code = %v; want %v", rec.Code, http.StatusConflict)
	}

	req, rec = newAuthRequest(http.MethodDelete, "/v1/applicants/"+app.ID+"/labels/"+label.ID, token)
	f.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("DELETE applicant label code = %v: %s", rec.Code, rec.Body.String())
	}
}

func Test_reviewApi_wishStatus(t *testing.T) {
	f := setup(t)
	_, corrector, app, eventID := seedReview(t, f)
	token := getToken(t, corrector)
	wishID := app.Wishes[0].ID

	// pending applicants listed for the event
	tt := httpTest{wantData: marchallList(t, app)}
	req, rec := newAuthRequest(http.MethodGet, "/v1/events/"+eventID+"/applicants?status=pending", token)
	f.app.ServeHTTP(rec, req)
	checkCodeAndData(t, tt, rec)

	// unknown status name
	req, rec = newAuthRequest(http.MethodGet, "/v1/events/"+eventID+"/applicants?status=lol", token)
	f.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("GET applicants (bad status) code = %v; want %v", rec.Code, http.StatusBadRequest)
	}

	// select the wish
	req, rec = newAuthRequest(http.MethodPut, "/v1/wishes/"+wishID+"/status", token, marchallObj(t, echoapi.WishStatusRequest{Status: "selected"}))
	f.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT wish status code = %v: %s", rec.Code, rec.Body.String())
	}

	// counter counts applicants waiting for a decision
	tt = httpTest{wantData: marchallObj(t, echoapi.CounterResponse{Count: 1})}
	req, rec = newAuthRequest(http.MethodGet, "/v1/events/"+eventID+"/counter", token)
	f.app.ServeHTTP(rec, req)
	checkCodeAndData(t, tt, rec)

	// same status twice is a conflict
	req, rec = newAuthRequest(http.MethodPut, "/v1/wishes/"+wishID+"/status", token, marchallObj(t, echoapi.WishStatusRequest{Status: "selected"}))
	f.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Errorf("PUT wish status (again) code = %v; want %v", rec.Code, http.StatusConflict)
	}
}

func Test_reviewApi_acceptanceEmail(t *testing.T) {
	f := setup(t)
	candidate, corrector, app, _ := seedReview(t, f)
	token := getToken(t, corrector)
	wishID := app.Wishes[0].ID
	sent := len(emailsvc.SentMessages)

	// a selection decision sends nothing
	req, rec := newAuthRequest(http.MethodPut, "/v1/wishes/"+wishID+"/status", token, marchallObj(t, echoapi.WishStatusRequest{Status: "selected"}))
	f.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT wish status (selected) code = %v: %s", rec.Code, rec.Body.String())
	}
	if got := len(emailsvc.SentMessages) - sent; got != 0 {
		t.Fatalf("selection sent %d message(s); want 0", got)
	}

	// accepting notifies the candidate
	req, rec = newAuthRequest(http.MethodPut, "/v1/wishes/"+wishID+"/status", token, marchallObj(t, echoapi.WishStatusRequest{Status: "accepted"}))
	f.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT wish status (accepted) code = %v: %s", rec.Code, rec.Body.String())
	}
	msgs := emailsvc.SentMessages[sent:]
	if len(msgs) != 1 {
		t.Fatalf("acceptance sent %d message(s); want 1", len(msgs))
	}
	msg := msgs[0]
	if msg.Subject != "Your application has been accepted" {
		t.Errorf("Subject = %q; want the acceptance notice", msg.Subject)
	}
	if len(msg.To) != 1 || msg.To[0].Address != candidate.Email {
		t.Errorf("To = %v; want %q", msg.To, candidate.Email)
	}

	// re-accepting is a conflict and sends nothing more
	req, rec = newAuthRequest(http.MethodPut, "/v1/wishes/"+wishID+"/status", token, marchallObj(t, echoapi.WishStatusRequest{Status: "accepted"}))
	f.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Errorf("PUT wish status (again) code = %v; want %v", rec.Code, http.StatusConflict)
	}
	if got := len(emailsvc.SentMessages) - sent; got != 1 {
		t.Errorf("total messages = %d; want 1", got)
	}
}

func Test_reviewApi_applicantsOrdering(t *testing.T) {
	f := setup(t)
	_, corrector, _, eventID := seedReview(t, f)
	token := getToken(t, corrector)
	ctx := context.Background()

	// a second validated candidate, last by username
	zoe := f.createUser(t, 3, "zoe", false)
	ed, err := f.edSvc.GetByYear(ctx, 2026)
	if err != nil {
		t.Fatalf("GetByYear() failed: %v", err)
	}
	questions, err := f.formSvc.Questions(ctx, ed.SignupFormID)
	if err != nil {
		t.Fatalf("Questions() failed: %v", err)
	}
	if err = f.appSvc.SaveAnswers(ctx, zoe, 2026, map[string]interface{}{questions[0].ID: "Me too"}); err != nil {
		t.Fatalf("SaveAnswers() failed: %v", err)
	}
	if err = f.appSvc.SaveWishes(ctx, zoe, 2026, []string{eventID}); err != nil {
		t.Fatalf("SaveWishes() failed: %v", err)
	}
	if err = f.appSvc.Validate(ctx, zoe, 2026); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}

	usernames := func(t *testing.T, body []byte) []string {
		t.Helper()
		var apps []applicant.Applicant
		if err := json.Unmarshal(body, &apps); err != nil {
			t.Fatalf("decoding applicants: %v", err)
		}
		names := make([]string, 0, len(apps))
		for _, app := range apps {
			names = append(names, app.User.Username)
		}
		return names
	}

	// ascending username
	req, rec := newAuthRequest(http.MethodGet, "/v1/events/"+eventID+"/applicants?status=pending&ordering=username", token)
	f.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET applicants code = %v: %s", rec.Code, rec.Body.String())
	}
	if got := usernames(t, rec.Body.Bytes()); len(got) != 2 || got[0] != "ada" || got[1] != "zoe" {
		t.Errorf("username order = %v; want [ada zoe]", got)
	}

	// descending username flips the listing
	req, rec = newAuthRequest(http.MethodGet, "/v1/events/"+eventID+"/applicants?status=pending&ordering=-username", token)
	f.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET applicants (ordering) code = %v: %s", rec.Code, rec.Body.String())
	}
	if got := usernames(t, rec.Body.Bytes()); len(got) != 2 || got[0] != "zoe" || got[1] != "ada" {
		t.Errorf("-username order = %v; want [zoe ada]", got)
	}

	// unknown ordering field is rejected
	req, rec = newAuthRequest(http.MethodGet, "/v1/events/"+eventID+"/applicants?status=pending&ordering=password", token)
	f.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("GET applicants (bad ordering) code = %v; want %v", rec.Code, http.StatusBadRequest)
	}
}

func Test_reviewApi_export(t *testing.T) {
	f := setup(t)
	_, corrector, app, eventID := seedReview(t, f)
	token := getToken(t, corrector)

	ctx := context.Background()
	if _, err := f.appSvc.SetWishStatus(ctx, corrector, app.Wishes[0].ID, applicant.StatusSelected); err != nil {
		t.Fatalf("SetWishStatus() failed: %v", err)
	}

	req, rec := newAuthRequest(http.MethodGet, "/v1/events/"+eventID+"/export", token)
	f.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET export code = %v: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q; want text/csv", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, ".csv") {
		t.Errorf("Content-Disposition = %q; want a csv attachment", cd)
	}

	lines := strings.Split(strings.TrimRight(rec.Body.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("export lines = %d; want header and one row", len(lines))
	}
	if !strings.HasPrefix(lines[0], "Username,First name,Last name,Email,Edition,Labels") {
		t.Errorf("header = %q; want identity columns first", lines[0])
	}
	if !strings.Contains(lines[1], "ada") || !strings.Contains(lines[1], "I love computers") {
		t.Errorf("row = %q; want applicant data", lines[1])
	}
}
