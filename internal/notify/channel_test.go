package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subwatch/internal/domain/channel"
	"subwatch/internal/domain/notification"
)

// countingTransport fails the request and counts it, to prove a code path
// never went on the wire.
type countingTransport struct {
	calls int
}

func (t *countingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	t.calls++
	return nil, http.ErrHandlerTimeout
}

func testDeps(records *fakeRecordRepo, client *http.Client) Deps {
	if client == nil {
		client = &http.Client{Timeout: sendTimeout}
	}
	return Deps{
		UserID:  1,
		HTTP:    client,
		Logger:  testLogger(),
		Records: records,
	}
}

func sampleEvent() *EventContext {
	return &EventContext{
		SubscriptionID: 7,
		Name:           "Netflix",
		Price:          decimal.NewFromFloat(15.99),
		CurrencySymbol: "$",
		NextPayment:    "2026-09-03",
		DaysUntil:      2,
		URL:            "https://netflix.com",
	}
}

func TestFormatEventMessage(t *testing.T) {
	t.Run("upcoming", func(t *testing.T) {
		body := formatEventMessage(sampleEvent(), notification.TypeUpcoming)

		assert.Contains(t, body, "Subscription Payment Reminder")
		assert.Contains(t, body, "Subscription: Netflix")
		assert.Contains(t, body, "Amount: $15.99")
		assert.Contains(t, body, "Payment Date: 2026-09-03")
		assert.Contains(t, body, "Days Until Payment: 2")
		assert.Contains(t, body, "https://netflix.com")
	})

	t.Run("overdue", func(t *testing.T) {
		body := formatEventMessage(sampleEvent(), notification.TypeOverdue)

		assert.Contains(t, body, "Overdue Subscription Payment")
		assert.Contains(t, body, "Due Date: 2026-09-03")
		assert.NotContains(t, body, "Days Until Payment")
	})

	t.Run("cancellation", func(t *testing.T) {
		ev := sampleEvent()
		ev.CancellationDate = "2026-09-08"
		body := formatEventMessage(ev, notification.TypeCancellation)

		assert.Contains(t, body, "Subscription Cancellation Reminder")
		assert.Contains(t, body, "Cancellation Date: 2026-09-08")
	})

	t.Run("missing_url_renders_na", func(t *testing.T) {
		ev := sampleEvent()
		ev.URL = ""
		body := formatEventMessage(ev, notification.TypeUpcoming)

		assert.Contains(t, body, "Manage your subscription at: N/A")
	})
}

func TestChannelValidationShortCircuit(t *testing.T) {
	// A channel with missing required settings must record a failure without
	// ever touching the network.
	transport := &countingTransport{}
	records := &fakeRecordRepo{}
	deps := testDeps(records, &http.Client{Transport: transport})

	cases := []struct {
		kind     channel.Kind
		settings map[string]string
	}{
		{channel.KindDiscord, nil},
		{channel.KindMattermost, nil},
		{channel.KindNtfy, map[string]string{"server_url": "https://ntfy.sh"}}, // topic missing
		{channel.KindGotify, map[string]string{"app_token": "tok"}},            // server_url missing
		{channel.KindPushover, map[string]string{"user_key": "u"}},             // api_token missing
		{channel.KindPushPlus, nil},
		{channel.KindWebhook, nil},
		{channel.KindTelegram, map[string]string{"bot_token": "t"}}, // chat_id missing
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			ch := NewChannel(tc.kind, deps, tc.settings)
			require.NotNil(t, ch)

			ok := ch.Send(context.Background(), Message{Title: "t", Body: "b", Type: notification.TypeManual})

			assert.False(t, ok)
			assert.Zero(t, transport.calls)
		})
	}

	require.Len(t, records.appended, len(cases))
	for _, rec := range records.appended {
		assert.Equal(t, notification.StatusFailed, rec.Status)
		assert.True(t, rec.ErrorMessage.Valid)
	}
}

func TestWebhookChannel_Send(t *testing.T) {
	t.Run("json_payload_and_default_codes", func(t *testing.T) {
		var got map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusCreated)
		}))
		defer server.Close()

		records := &fakeRecordRepo{}
		ch := NewChannel(channel.KindWebhook, testDeps(records, nil), map[string]string{
			"url":     server.URL,
			"headers": `{"X-Api-Key":"secret"}`,
		})

		ok := ch.Send(context.Background(), Message{
			Title: "Payment Reminder: Netflix",
			Type:  notification.TypeUpcoming,
			Event: sampleEvent(),
		})

		assert.True(t, ok)
		assert.Equal(t, "Payment Reminder: Netflix", got["title"])
		sub, _ := got["subscription"].(map[string]any)
		require.NotNil(t, sub)
		assert.Equal(t, "Netflix", sub["name"])

		require.Len(t, records.appended, 1)
		rec := records.appended[0]
		assert.Equal(t, notification.StatusSent, rec.Status)
		assert.Equal(t, int64(7), rec.SubscriptionID.Int64)
	})

	t.Run("custom_success_codes", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))
		defer server.Close()

		ch := NewChannel(channel.KindWebhook, testDeps(&fakeRecordRepo{}, nil), map[string]string{
			"url":           server.URL,
			"success_codes": "418",
		})

		assert.True(t, ch.Send(context.Background(), Message{Title: "t", Body: "b", Type: notification.TypeManual}))
	})

	t.Run("unexpected_status_fails", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		records := &fakeRecordRepo{}
		ch := NewChannel(channel.KindWebhook, testDeps(records, nil), map[string]string{"url": server.URL})

		assert.False(t, ch.Send(context.Background(), Message{Title: "t", Body: "b", Type: notification.TypeManual}))
		require.Len(t, records.appended, 1)
		assert.Equal(t, notification.StatusFailed, records.appended[0].Status)
	})
}

func TestNtfyChannel_Send(t *testing.T) {
	var gotPath, gotTitle, gotClick string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotTitle = r.Header.Get("Title")
		gotClick = r.Header.Get("Click")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ch := NewChannel(channel.KindNtfy, testDeps(&fakeRecordRepo{}, nil), map[string]string{
		"server_url": server.URL,
		"topic":      "renewals",
	})

	ok := ch.Send(context.Background(), Message{
		Title: "Payment Reminder: Netflix",
		Type:  notification.TypeUpcoming,
		Event: sampleEvent(),
	})

	assert.True(t, ok)
	assert.Equal(t, "/renewals", gotPath)
	assert.Equal(t, "Payment Reminder: Netflix", gotTitle)
	assert.Equal(t, "https://netflix.com", gotClick)
}

func TestPushoverChannel_Send(t *testing.T) {
	t.Run("status_one_is_success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "tok", r.Form.Get("token"))
			assert.Equal(t, "usr", r.Form.Get("user"))
			w.Write([]byte(`{"status":1}`))
		}))
		defer server.Close()

		ch := NewChannel(channel.KindPushover, testDeps(&fakeRecordRepo{}, nil), map[string]string{
			"api_token": "tok",
			"user_key":  "usr",
			"api_url":   server.URL,
		})

		assert.True(t, ch.Send(context.Background(), Message{Title: "t", Body: "b", Type: notification.TypeManual}))
	})

	t.Run("status_zero_is_failure_despite_http_200", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"status":0,"errors":["user identifier is invalid"]}`))
		}))
		defer server.Close()

		records := &fakeRecordRepo{}
		ch := NewChannel(channel.KindPushover, testDeps(records, nil), map[string]string{
			"api_token": "tok",
			"user_key":  "usr",
			"api_url":   server.URL,
		})

		assert.False(t, ch.Send(context.Background(), Message{Title: "t", Body: "b", Type: notification.TypeManual}))
		require.Len(t, records.appended, 1)
		assert.Equal(t, notification.StatusFailed, records.appended[0].Status)
	})
}
