// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mockserver

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morganforge/scmlite-tui/internal/api"
)

func startTestServer(t *testing.T) (*Server, *api.Client) {
	t.Helper()
	feed := NewFeed(50)
	feed.Fill(20)

	srv := New(feed, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	client := api.NewClientWithConfig(&api.ClientConfig{BaseURL: ts.URL})
	return srv, client
}

func TestLoginIssuesToken(t *testing.T) {
	srv, client := startTestServer(t)
	require.NoError(t, srv.AddUser("Pat", "pat@example.com", "Abcd1@", ""))

	result, err := client.Login(context.Background(), api.LoginRequest{
		Email:    "pat@example.com",
		Password: "Abcd1@",
	})
	require.NoError(t, err)
	assert.False(t, result.StepUpRequired)
	assert.NotEmpty(t, result.AccessToken)
	assert.Equal(t, "bearer", result.TokenType)
	assert.Equal(t, "Pat", result.UserData.Name)

	require.NoError(t, client.VerifyCredential(context.Background(), result.AccessToken))
}

func TestLoginFailures(t *testing.T) {
	srv, client := startTestServer(t)
	require.NoError(t, srv.AddUser("Pat", "pat@example.com", "Abcd1@", ""))

	_, err := client.Login(context.Background(), api.LoginRequest{
		Email: "nobody@example.com", Password: "Abcd1@",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "User not found")

	_, err = client.Login(context.Background(), api.LoginRequest{
		Email: "pat@example.com", Password: "wrong",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect password")
}

func TestStepUpFlow(t *testing.T) {
	srv, client := startTestServer(t)

	key, err := totp.Generate(totp.GenerateOpts{Issuer: "scmlite", AccountName: "pat@example.com"})
	require.NoError(t, err)
	require.NoError(t, srv.AddUser("Pat", "pat@example.com", "Abcd1@", key.Secret()))

	result, err := client.Login(context.Background(), api.LoginRequest{
		Email: "pat@example.com", Password: "Abcd1@",
	})
	require.NoError(t, err)
	require.True(t, result.StepUpRequired)
	assert.Equal(t, "pat@example.com", result.PinnedPrincipal)
	assert.Empty(t, result.AccessToken, "no credential before the second factor")

	code, err := totp.GenerateCode(key.Secret(), time.Now())
	require.NoError(t, err)

	verified, err := client.VerifyStepUp(context.Background(), api.StepUpRequest{
		PinnedPrincipal: "pat@example.com",
		Code:            code,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, verified.AccessToken)

	// The challenge is single-use.
	_, err = client.VerifyStepUp(context.Background(), api.StepUpRequest{
		PinnedPrincipal: "pat@example.com",
		Code:            code,
	})
	require.Error(t, err)
}

func TestStepUpWrongCode(t *testing.T) {
	srv, client := startTestServer(t)

	key, err := totp.Generate(totp.GenerateOpts{Issuer: "scmlite", AccountName: "pat@example.com"})
	require.NoError(t, err)
	require.NoError(t, srv.AddUser("Pat", "pat@example.com", "Abcd1@", key.Secret()))

	_, err = client.Login(context.Background(), api.LoginRequest{
		Email: "pat@example.com", Password: "Abcd1@",
	})
	require.NoError(t, err)

	_, err = client.VerifyStepUp(context.Background(), api.StepUpRequest{
		PinnedPrincipal: "pat@example.com",
		Code:            "000000",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid verification code")
}

func TestSignupThenLogin(t *testing.T) {
	_, client := startTestServer(t)

	err := client.Signup(context.Background(), api.SignupRequest{
		Name: "Sam", Email: "sam@example.com", Password: "Efgh2#",
	})
	require.NoError(t, err)

	// Duplicate email rejected.
	err = client.Signup(context.Background(), api.SignupRequest{
		Name: "Sam", Email: "sam@example.com", Password: "Efgh2#",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")

	result, err := client.Login(context.Background(), api.LoginRequest{
		Email: "sam@example.com", Password: "Efgh2#",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
}

func TestDeviceDataRequiresToken(t *testing.T) {
	srv, client := startTestServer(t)
	require.NoError(t, srv.AddUser("Pat", "pat@example.com", "Abcd1@", ""))

	_, err := client.DeviceData(context.Background(), "bogus-token")
	require.Error(t, err)
	assert.True(t, api.IsAuthRejected(err))

	result, err := client.Login(context.Background(), api.LoginRequest{
		Email: "pat@example.com", Password: "Abcd1@",
	})
	require.NoError(t, err)

	records, err := client.DeviceData(context.Background(), result.AccessToken)
	require.NoError(t, err)
	require.Len(t, records, 15, "latest 15 of 20 emitted")
	for _, rec := range records {
		assert.GreaterOrEqual(t, rec.DeviceID, DeviceIDMin)
		assert.LessOrEqual(t, rec.DeviceID, DeviceIDMax)
		assert.GreaterOrEqual(t, rec.BatteryLevel, 2.0)
		assert.LessOrEqual(t, rec.BatteryLevel, 5.0)
		assert.GreaterOrEqual(t, rec.SensorTemperature, 10.0)
		assert.LessOrEqual(t, rec.SensorTemperature, 40.0)
		assert.NotEqual(t, rec.RouteFrom, rec.RouteTo)
	}
}

func TestRevokeAllInvalidatesTokens(t *testing.T) {
	srv, client := startTestServer(t)
	require.NoError(t, srv.AddUser("Pat", "pat@example.com", "Abcd1@", ""))

	result, err := client.Login(context.Background(), api.LoginRequest{
		Email: "pat@example.com", Password: "Abcd1@",
	})
	require.NoError(t, err)

	srv.RevokeAll()
	err = client.VerifyCredential(context.Background(), result.AccessToken)
	assert.True(t, api.IsAuthRejected(err))
}

func TestShipmentLifecycle(t *testing.T) {
	srv, client := startTestServer(t)
	require.NoError(t, srv.AddUser("Pat", "pat@example.com", "Abcd1@", ""))
	require.NoError(t, srv.AddUser("Sam", "sam@example.com", "Efgh2#", ""))

	patLogin, err := client.Login(context.Background(), api.LoginRequest{Email: "pat@example.com", Password: "Abcd1@"})
	require.NoError(t, err)
	samLogin, err := client.Login(context.Background(), api.LoginRequest{Email: "sam@example.com", Password: "Efgh2#"})
	require.NoError(t, err)

	err = client.CreateShipment(context.Background(), patLogin.AccessToken, api.Shipment{
		ShipmentNumber: "SH-1001",
		Route:          "Chennai, India -> London,UK",
		Device:         "1151",
		GoodsType:      "Medicine",
		Status:         "In Transit",
	})
	require.NoError(t, err)

	mine, err := client.MyShipments(context.Background(), patLogin.AccessToken)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "SH-1001", mine[0].ShipmentNumber)
	assert.Equal(t, "pat@example.com", mine[0].CreatorEmail)
	assert.NotEmpty(t, mine[0].ID)

	// Other users do not see it.
	others, err := client.MyShipments(context.Background(), samLogin.AccessToken)
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestAccountLookup(t *testing.T) {
	srv, client := startTestServer(t)
	require.NoError(t, srv.AddUser("Pat", "pat@example.com", "Abcd1@", ""))
	require.NoError(t, srv.AddUser("Sam", "sam@example.com", "Efgh2#", ""))

	login, err := client.Login(context.Background(), api.LoginRequest{Email: "pat@example.com", Password: "Abcd1@"})
	require.NoError(t, err)

	profile, err := client.Account(context.Background(), login.AccessToken, "pat@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Pat", profile.Name)

	// Another user's account is forbidden, surfaced as an auth rejection.
	_, err = client.Account(context.Background(), login.AccessToken, "sam@example.com")
	require.Error(t, err)
	assert.True(t, api.IsAuthRejected(err))
}

func TestLoginRateLimit(t *testing.T) {
	srv, client := startTestServer(t)
	require.NoError(t, srv.AddUser("Pat", "pat@example.com", "Abcd1@", ""))

	// Burst of 5 allowed, then limited.
	var limited bool
	for i := 0; i < 10; i++ {
		_, err := client.Login(context.Background(), api.LoginRequest{
			Email: "pat@example.com", Password: "wrong",
		})
		require.Error(t, err)
		if err.Error() == "Too many login attempts. Try again later." {
			limited = true
			break
		}
	}
	assert.True(t, limited, "rate limit never engaged")
}

func TestFeedLatestOrder(t *testing.T) {
	feed := NewFeed(10)
	base := time.Unix(1000, 0)
	feed.now = func() time.Time {
		base = base.Add(time.Second)
		return base
	}
	feed.Fill(5)

	latest := feed.Latest(3)
	require.Len(t, latest, 3)
	assert.True(t, latest[0].Timestamp >= latest[1].Timestamp)
	assert.True(t, latest[1].Timestamp >= latest[2].Timestamp)
}
