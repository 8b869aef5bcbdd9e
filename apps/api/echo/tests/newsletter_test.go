package tests

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	echoapi "github.com/prologin/gccsite/apps/api/echo"
	"github.com/prologin/gccsite/core"
)

func Test_newsletterApi_subscribe(t *testing.T) {
	f := setup(t)
	subscribed := marchallObj(t, echoapi.SuccessResponse{Success: "Subscribed to the newsletter."})

	tests := []httpTest{
		{
			name: "subscribe", body: marchallObj(t, echoapi.SubscribeRequest{Email: "marie@test.fr"}),
			wantCode: http.StatusCreated, wantData: subscribed,
		},
		{
			name: "invalid email", body: marchallObj(t, echoapi.SubscribeRequest{Email: "lol"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"email": "email must be a valid email address"}),
		},
		{
			name: "already subscribed", body: marchallObj(t, echoapi.SubscribeRequest{Email: "Marie@Test.FR"}),
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "email is already subscribed"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/newsletter/subscribe", tt.body)
			f.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_newsletterApi_unsubscribe(t *testing.T) {
	f := setup(t)

	sub, err := f.newsSvc.Subscribe(context.Background(), "marie@test.fr")
	if err != nil {
		t.Fatalf("Subscribe() failed: %v", err)
	}
	id := strconv.Itoa(sub.ID)
	token := sub.UnsubscribeToken(core.Conf.SecretKey)

	tests := []httpTest{
		{
			name: "bad id", path: "/v1/newsletter/unsubscribe/lol/" + token,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "invalid subscriber id"}),
		},
		{
			name: "bad token", path: "/v1/newsletter/unsubscribe/" + id + "/nope",
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "invalid unsubscribe token"}),
		},
		{
			name: "unsubscribe", path: "/v1/newsletter/unsubscribe/" + id + "/" + token,
			wantData: marchallObj(t, echoapi.SuccessResponse{Success: "Unsubscribed from the newsletter."}),
		},
		{
			name: "already gone", path: "/v1/newsletter/unsubscribe/" + id + "/" + token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "email is not subscribed"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, tt.path)
			f.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
