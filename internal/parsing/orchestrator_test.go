package parsing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fxops/confirmhub/internal/database"
	"github.com/fxops/confirmhub/internal/types"
)

func newTestOrchestrator(t *testing.T) (*Orchestrator, *gorm.DB) {
	t.Helper()
	db, err := database.NewTestDatabase()
	require.NoError(t, err)
	return NewOrchestrator(db, NewRegistry(testDeps(allLookups()))), db
}

func TestOrchestratorIngestAndProcess(t *testing.T) {
	orch, db := newTestOrchestrator(t)

	msg := fixMessage(volbrokerAE)
	require.NoError(t, orch.IngestMessage(msg))
	require.NotEmpty(t, msg.PayloadHash)

	outcome, err := orch.ProcessMessage(msg.MessageID, false)
	require.NoError(t, err)
	assert.True(t, outcome.Parsed)
	assert.Equal(t, []string{"VB445-O1", "VB445-H1"}, outcome.TradeIDs)

	var trades []types.Trade
	require.NoError(t, db.Find(&trades).Error)
	assert.Len(t, trades, 2)

	var links []types.TradeSystemLink
	require.NoError(t, db.Where("trade_id = ?", "VB445-O1").Find(&links).Error)
	assert.Len(t, links, 4)
	for _, link := range links {
		assert.Equal(t, types.StatusNew, link.Status)
	}

	var stored types.MessageIn
	require.NoError(t, db.Where("message_id = ?", msg.MessageID).First(&stored).Error)
	assert.True(t, stored.Parsed)
	assert.Empty(t, stored.ParseError)
}

func TestOrchestratorRejectsDuplicatePayload(t *testing.T) {
	orch, _ := newTestOrchestrator(t)

	first := fixMessage(volbrokerAE)
	require.NoError(t, orch.IngestMessage(first))

	dup := fixMessage(volbrokerAE)
	dup.MessageID = "msg-duplicate"
	err := orch.IngestMessage(dup)
	assert.ErrorIs(t, err, ErrDuplicateMessage)
}

func TestOrchestratorAlreadyParsedIsNoOp(t *testing.T) {
	orch, db := newTestOrchestrator(t)

	msg := fixMessage(volbrokerAE)
	require.NoError(t, orch.IngestMessage(msg))
	_, err := orch.ProcessMessage(msg.MessageID, false)
	require.NoError(t, err)

	outcome, err := orch.ProcessMessage(msg.MessageID, false)
	require.NoError(t, err)
	assert.True(t, outcome.Parsed)
	assert.Empty(t, outcome.TradeIDs)

	var count int64
	require.NoError(t, db.Model(&types.Trade{}).Count(&count).Error)
	assert.EqualValues(t, 2, count, "no duplicate trades on repeat processing")
}

func TestOrchestratorReprocessSupersedesPriorResults(t *testing.T) {
	orch, db := newTestOrchestrator(t)

	msg := fixMessage(volbrokerAE)
	require.NoError(t, orch.IngestMessage(msg))
	_, err := orch.ProcessMessage(msg.MessageID, false)
	require.NoError(t, err)

	outcome, err := orch.ProcessMessage(msg.MessageID, true)
	require.NoError(t, err, "reprocess must not trip over the prior trades")
	assert.True(t, outcome.Parsed)
	assert.Equal(t, []string{"VB445-O1", "VB445-H1"}, outcome.TradeIDs)

	var count int64
	require.NoError(t, db.Model(&types.Trade{}).Count(&count).Error)
	assert.EqualValues(t, 2, count, "reprocess replaces trades, never duplicates them")

	var links []types.TradeSystemLink
	require.NoError(t, db.Where("trade_id = ?", "VB445-O1").Find(&links).Error)
	assert.Len(t, links, 4)
	for _, link := range links {
		assert.Equal(t, types.StatusNew, link.Status)
	}
}

func TestOrchestratorRecordsParseFailure(t *testing.T) {
	orch, db := newTestOrchestrator(t)

	msg := fixMessage("this is not fix")
	require.NoError(t, orch.IngestMessage(msg))

	outcome, err := orch.ProcessMessage(msg.MessageID, false)
	require.NoError(t, err, "a structural parse failure is an outcome, not an error")
	assert.False(t, outcome.Parsed)
	assert.NotEmpty(t, outcome.Reason)

	var stored types.MessageIn
	require.NoError(t, db.Where("message_id = ?", msg.MessageID).First(&stored).Error)
	assert.False(t, stored.Parsed)
	assert.Equal(t, outcome.Reason, stored.ParseError)

	var events []types.TradeWorkflowEvent
	require.NoError(t, db.Where("message_id = ?", msg.MessageID).Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, types.EventMessageParseFailed, events[0].EventType)

	// a failed message can be retried explicitly
	retry, err := orch.ProcessMessage(msg.MessageID, true)
	require.NoError(t, err)
	assert.False(t, retry.Parsed)
}

func TestOrchestratorUnknownMessage(t *testing.T) {
	orch, _ := newTestOrchestrator(t)

	_, err := orch.ProcessMessage("no-such-id", false)
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestOrchestratorNoParserForVenue(t *testing.T) {
	orch, db := newTestOrchestrator(t)

	msg := emailMessage("UNKNOWN-VENUE", "some payload")
	require.NoError(t, orch.IngestMessage(msg))

	outcome, err := orch.ProcessMessage(msg.MessageID, false)
	require.NoError(t, err)
	assert.False(t, outcome.Parsed)
	assert.Contains(t, outcome.Reason, "no parser")

	var stored types.MessageIn
	require.NoError(t, db.Where("message_id = ?", msg.MessageID).First(&stored).Error)
	assert.Equal(t, outcome.Reason, stored.ParseError)
}

func TestOrchestratorProcessPendingSkipsFailed(t *testing.T) {
	orch, _ := newTestOrchestrator(t)

	good := emailMessage(types.VenueBarclays, barclaysForwardEmail)
	require.NoError(t, orch.IngestMessage(good))
	bad := fixMessage("garbage")
	require.NoError(t, orch.IngestMessage(bad))
	_, err := orch.ProcessMessage(bad.MessageID, false)
	require.NoError(t, err)

	outcomes, err := orch.ProcessPendingMessages()
	require.NoError(t, err)
	// the failed message carries a parse error and is no longer pending
	require.Len(t, outcomes, 1)
	assert.Equal(t, good.MessageID, outcomes[0].MessageID)
	assert.True(t, outcomes[0].Parsed)
}

func TestRegistryResolution(t *testing.T) {
	registry := NewRegistry(testDeps(allLookups()))

	cases := []struct {
		name  string
		msg   *types.MessageIn
		found bool
	}{
		{"barclays email", emailMessage(types.VenueBarclays, "x"), true},
		{"tullett email", emailMessage(types.VenueTullett, "x"), true},
		{"natwest email", emailMessage(types.VenueNatWest, "x"), true},
		{"volbroker AE", fixMessage("x"), true},
		{"unknown venue", emailMessage("OTHER", "x"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := registry.Resolve(tc.msg)
			assert.Equal(t, tc.found, ok)
		})
	}

	t.Run("unsupported fix msg type", func(t *testing.T) {
		msg := fixMessage("x")
		msg.FixMsgType = "8"
		_, ok := registry.Resolve(msg)
		assert.False(t, ok)
	})
}
