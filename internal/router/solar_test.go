package router

import (
	"net/http"
	"testing"

	"greencreditapi/pkg/config"
	"greencreditapi/pkg/schemas"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type solarRequestRes struct {
	Id                  string `json:"id"`
	UserId              string `json:"userId"`
	Status              string `json:"status"`
	AcceptedInstallerId string `json:"acceptedInstallerId"`
	CompletedByOwner    bool   `json:"completedByOwner"`
}

func TestSolarInstallation(t *testing.T) {

	env := newTestEnv(t)
	ownerToken := env.user("owner", false)
	installerToken := env.user("installer", false)
	otherToken := env.user("other", false)
	adminToken := env.user("admin", true)

	var req solarRequestRes
	code := env.do("POST", "/solar/requests", ownerToken, map[string]string{
		"description": "Four panels on a flat roof",
		"location":    "Kandy",
	}, &req)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, schemas.SOLAR_REQUEST_OPEN, req.Status)

	var open []solarRequestRes
	require.Equal(t, http.StatusOK, env.do("GET", "/solar/requests", otherToken, nil, &open))
	assert.Len(t, open, 1)

	reqPath := "/solar/requests/" + req.Id
	var app struct {
		Id     string `json:"id"`
		Status string `json:"status"`
	}

	t.Run("applications", func(t *testing.T) {
		var flags map[string]bool
		assert.Equal(t, http.StatusBadRequest, env.do("POST", reqPath+"/apply", ownerToken, nil, &flags))
		assert.True(t, flags["ownRequest"])

		require.Equal(t, http.StatusCreated, env.do("POST", reqPath+"/apply", installerToken, nil, &app))
		assert.Equal(t, schemas.SOLAR_APPLICATION_APPLIED, app.Status)

		flags = nil
		assert.Equal(t, http.StatusConflict, env.do("POST", reqPath+"/apply", installerToken, nil, &flags))
		assert.True(t, flags["alreadyApplied"])

		assert.Equal(t, http.StatusNotFound, env.do("GET", reqPath+"/applications", otherToken, nil, nil))
		var apps []struct {
			UserId string `json:"userId"`
		}
		require.Equal(t, http.StatusOK, env.do("GET", reqPath+"/applications", ownerToken, nil, &apps))
		require.Len(t, apps, 1)
		assert.Equal(t, "installer", apps[0].UserId)

		assert.Equal(t, http.StatusNotFound, env.do("POST", "/solar/requests/missing/apply", installerToken, nil, nil))
	})

	proof := map[string]string{"requestId": req.Id, "imageUrl": "https://cdn.example.com/panels.jpg"}

	t.Run("only the accepted installer submits", func(t *testing.T) {
		var flags map[string]bool
		assert.Equal(t, http.StatusForbidden, env.do("POST", "/solar/installations", installerToken, proof, &flags))
		assert.True(t, flags["notInstaller"])

		assert.Equal(t, http.StatusNotFound, env.do("POST", reqPath+"/accept", otherToken, map[string]string{"applicationId": app.Id}, nil))

		var accepted solarRequestRes
		require.Equal(t, http.StatusOK, env.do("POST", reqPath+"/accept", ownerToken, map[string]string{"applicationId": app.Id}, &accepted))
		assert.Equal(t, schemas.SOLAR_REQUEST_IN_PROGRESS, accepted.Status)
		assert.Equal(t, "installer", accepted.AcceptedInstallerId)

		// the request is no longer open
		assert.Equal(t, http.StatusConflict, env.do("POST", reqPath+"/accept", ownerToken, map[string]string{"applicationId": app.Id}, nil))
		assert.Equal(t, http.StatusConflict, env.do("POST", reqPath+"/apply", otherToken, nil, nil))
		assert.Equal(t, http.StatusForbidden, env.do("POST", "/solar/installations", otherToken, proof, nil))
	})

	var first submissionRes
	t.Run("rejected proof reopens the work", func(t *testing.T) {
		require.Equal(t, http.StatusCreated, env.do("POST", "/solar/installations", installerToken, proof, &first))
		assert.Equal(t, "solar", first.Kind)
		assert.Equal(t, http.StatusConflict, env.do("POST", "/solar/installations", installerToken, proof, nil))

		var mine []solarRequestRes
		require.Equal(t, http.StatusOK, env.do("GET", "/solar/requests/mine", ownerToken, nil, &mine))
		require.Len(t, mine, 1)
		assert.Equal(t, schemas.SOLAR_REQUEST_PENDING_APPROVAL, mine[0].Status)

		var res reviewRes
		require.Equal(t, http.StatusOK, env.do("POST", "/admin/submissions/solar/"+first.Id+"/review", adminToken, map[string]string{"status": "rejected"}, &res))
		assert.Nil(t, res.LedgerEntry)

		require.Equal(t, http.StatusOK, env.do("GET", "/solar/requests/mine", ownerToken, nil, &mine))
		assert.Equal(t, schemas.SOLAR_REQUEST_IN_PROGRESS, mine[0].Status)
	})

	t.Run("withdrawn proof reopens the work", func(t *testing.T) {
		var pending submissionRes
		require.Equal(t, http.StatusCreated, env.do("POST", "/solar/installations", installerToken, proof, &pending))

		var mine []solarRequestRes
		require.Equal(t, http.StatusOK, env.do("GET", "/solar/requests/mine", ownerToken, nil, &mine))
		assert.Equal(t, schemas.SOLAR_REQUEST_PENDING_APPROVAL, mine[0].Status)

		require.Equal(t, http.StatusOK, env.do("DELETE", "/submissions/solar/"+pending.Id, installerToken, nil, nil))

		require.Equal(t, http.StatusOK, env.do("GET", "/solar/requests/mine", ownerToken, nil, &mine))
		assert.Equal(t, schemas.SOLAR_REQUEST_IN_PROGRESS, mine[0].Status)

		// deleting the old rejected proof leaves the request alone
		require.Equal(t, http.StatusOK, env.do("DELETE", "/submissions/solar/"+first.Id, installerToken, nil, nil))
		require.Equal(t, http.StatusOK, env.do("GET", "/solar/requests/mine", ownerToken, nil, &mine))
		assert.Equal(t, schemas.SOLAR_REQUEST_IN_PROGRESS, mine[0].Status)
	})

	t.Run("approved proof rewards the installer", func(t *testing.T) {
		var second submissionRes
		require.Equal(t, http.StatusCreated, env.do("POST", "/solar/installations", installerToken, proof, &second))

		var res reviewRes
		require.Equal(t, http.StatusOK, env.do("POST", "/admin/submissions/solar/"+second.Id+"/review", adminToken, map[string]string{"status": "approved"}, &res))
		require.NotNil(t, res.LedgerEntry)
		assert.Equal(t, config.SOLAR_DEFAULT_REWARD, res.LedgerEntry.Amount)
		assert.Equal(t, "solar:"+second.Id, res.LedgerEntry.Source)

		var rewards rewardsRes
		require.Equal(t, http.StatusOK, env.do("GET", "/rewards", installerToken, nil, &rewards))
		assert.Equal(t, config.SOLAR_DEFAULT_REWARD, rewards.Total)
		assert.Equal(t, config.SOLAR_DEFAULT_REWARD, rewards.Balance.Redeemable)

		var mine []solarRequestRes
		require.Equal(t, http.StatusOK, env.do("GET", "/solar/requests/mine", ownerToken, nil, &mine))
		assert.Equal(t, schemas.SOLAR_REQUEST_COMPLETED, mine[0].Status)
	})

	t.Run("owner confirms", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, env.do("POST", reqPath+"/complete", installerToken, nil, nil))
		require.Equal(t, http.StatusOK, env.do("POST", reqPath+"/complete", ownerToken, nil, nil))

		var mine []solarRequestRes
		require.Equal(t, http.StatusOK, env.do("GET", "/solar/requests/mine", ownerToken, nil, &mine))
		assert.True(t, mine[0].CompletedByOwner)
	})

}
