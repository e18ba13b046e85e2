package param

import (
	"context"
	"testing"

	"termpool/core"
	"termpool/internal/testutil"
	"termpool/pkg/number"
	"termpool/service/capability"
	"termpool/service/message"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEngineAccount = "engine-account"

type paramEnv struct {
	params   *testutil.ParamStore
	messages *testutil.MessageStore
	paramz   core.IParamService
}

func newParamEnv(t *testing.T) *paramEnv {
	ctx := context.Background()

	system := &core.System{
		Admins:        []string{"admin"},
		EngineAccount: testEngineAccount,
	}

	env := &paramEnv{
		params:   testutil.NewParamStore(),
		messages: testutil.NewMessageStore(),
	}

	capabilities := testutil.NewCapabilityStore()
	require.NoError(t, capabilities.Grant(ctx, &core.CapabilityGrant{
		UserID:     "operator",
		Capability: core.CapabilityAdmin,
	}))

	env.paramz = New(testutil.DB{}, system, env.params, env.messages,
		message.New(core.Notifier{}), capability.New(system, capabilities))

	require.NoError(t, env.params.Save(ctx, nil, &core.EngineParams{
		EngineID:      testEngineAccount,
		Threshold:     2,
		BaseRateBps:   800,
		MinAmount:     number.Decimal("100"),
		MaxAmount:     number.Decimal("50000"),
		MinTermMonths: 1,
		MaxTermMonths: 60,
		GraceDays:     3,
	}))

	return env
}

func TestParams(t *testing.T) {
	ctx := context.Background()
	env := newParamEnv(t)

	params, err := env.paramz.Params(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), params.Threshold)
	assert.Equal(t, int64(800), params.BaseRateBps)
	assert.Equal(t, "100", params.MinAmount.String())
}

func TestUpdateParamAuthorization(t *testing.T) {
	ctx := context.Background()
	env := newParamEnv(t)

	// configured admins pass without a grant row
	params, err := env.paramz.UpdateParam(ctx, "admin", core.ParamKeyThreshold, "3")
	require.NoError(t, err)
	assert.Equal(t, int64(3), params.Threshold)

	// granted admin capability passes too
	params, err = env.paramz.UpdateParam(ctx, "operator", core.ParamKeyThreshold, "4")
	require.NoError(t, err)
	assert.Equal(t, int64(4), params.Threshold)

	_, err = env.paramz.UpdateParam(ctx, "mallory", core.ParamKeyThreshold, "1")
	assert.Equal(t, core.ErrOperationForbidden, err)
}

func TestUpdateParamValues(t *testing.T) {
	ctx := context.Background()
	env := newParamEnv(t)

	for _, tc := range []struct {
		key   string
		value string
		err   error
	}{
		{core.ParamKeyThreshold, "3", nil},
		{core.ParamKeyThreshold, "0", core.ErrInvalidParamValue},
		{core.ParamKeyThreshold, "abc", core.ErrInvalidParamValue},
		{core.ParamKeyBaseRate, "1200", nil},
		{core.ParamKeyBaseRate, "0", nil},
		{core.ParamKeyBaseRate, "-1", core.ErrInvalidParamValue},
		{core.ParamKeyMinAmount, "250.5", nil},
		{core.ParamKeyMinAmount, "-1", core.ErrInvalidParamValue},
		{core.ParamKeyMinAmount, "60000", core.ErrInvalidParamValue},
		{core.ParamKeyMaxAmount, "40000", nil},
		{core.ParamKeyMaxAmount, "10", core.ErrInvalidParamValue},
		{core.ParamKeyMaxAmount, "0", nil},
		{core.ParamKeyMinTerm, "6", nil},
		{core.ParamKeyMinTerm, "0", core.ErrInvalidParamValue},
		{core.ParamKeyMinTerm, "100", core.ErrInvalidParamValue},
		{core.ParamKeyMaxTerm, "24", nil},
		{core.ParamKeyMaxTerm, "3", core.ErrInvalidParamValue},
		{core.ParamKeyGraceDays, "5", nil},
		{core.ParamKeyGraceDays, "-1", core.ErrInvalidParamValue},
		{"banana", "1", core.ErrUnknownParam},
	} {
		_, err := env.paramz.UpdateParam(ctx, "admin", tc.key, tc.value)
		assert.Equal(t, tc.err, err, "%s=%s", tc.key, tc.value)
	}

	params, err := env.paramz.Params(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), params.Threshold)
	assert.Equal(t, int64(0), params.BaseRateBps)
	assert.Equal(t, "250.5", params.MinAmount.String())
	assert.Equal(t, int64(6), params.MinTermMonths)
	assert.Equal(t, int64(24), params.MaxTermMonths)
	assert.Equal(t, int64(5), params.GraceDays)
}

func TestUpdateParamAudit(t *testing.T) {
	ctx := context.Background()
	env := newParamEnv(t)

	_, err := env.paramz.UpdateParam(ctx, "admin", core.ParamKeyBaseRate, "900")
	require.NoError(t, err)
	_, err = env.paramz.UpdateParam(ctx, "operator", core.ParamKeyGraceDays, "7")
	require.NoError(t, err)

	// rejected updates leave no trace
	_, err = env.paramz.UpdateParam(ctx, "admin", core.ParamKeyThreshold, "0")
	require.Error(t, err)

	logs, err := env.params.ListLogs(ctx, testEngineAccount, 100)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "admin", logs[0].Actor)
	assert.Equal(t, core.ParamKeyBaseRate, logs[0].Key)
	assert.JSONEq(t, `{"key":"base_rate_bps","old":"800","new":"900"}`, string(logs[0].Content))
	assert.Equal(t, "operator", logs[1].Actor)
	assert.Equal(t, core.ParamKeyGraceDays, logs[1].Key)

	messages, err := env.messages.List(ctx, 100)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, core.ActionParamUpdated, messages[0].Action)
}
