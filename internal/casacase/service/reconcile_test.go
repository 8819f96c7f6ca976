package service

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/advocase/internal/casacase/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderID(t *testing.T, node *snowflake.Node) snowflake.ID {
	t.Helper()
	return node.Generate()
}

func TestReconcileOrdersCreatesAndUpdates(t *testing.T) {
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	keep := orderID(t, node)
	existing := []domain.CaseCourtOrder{
		{ID: keep, Text: "Attend weekly therapy"},
	}

	status := domain.ImplementationPartiallyImplemented
	submitted := []domain.CourtOrderInput{
		{Text: "Complete parenting class"},
		{ID: &keep, Text: "Attend weekly therapy sessions", ImplementationStatus: &status},
	}

	creates, updates := reconcileOrders(existing, submitted)
	require.Len(t, creates, 1)
	assert.Equal(t, "Complete parenting class", creates[0].Text)
	require.Len(t, updates, 1)
	assert.Equal(t, keep, updates[0].ID)
	assert.Equal(t, "Attend weekly therapy sessions", updates[0].Text)
	require.NotNil(t, updates[0].ImplementationStatus)
	assert.Equal(t, status, *updates[0].ImplementationStatus)
}

func TestReconcileOrdersBlankTextLeavesOrderUntouched(t *testing.T) {
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	keep := orderID(t, node)
	existing := []domain.CaseCourtOrder{
		{ID: keep, Text: "Supervised visitation only"},
	}

	submitted := []domain.CourtOrderInput{
		{ID: &keep, Text: "   "},
	}

	creates, updates := reconcileOrders(existing, submitted)
	assert.Empty(t, creates)
	assert.Empty(t, updates)
}

func TestReconcileOrdersSkipsBlankCreatesAndUnknownIDs(t *testing.T) {
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	unknown := orderID(t, node)
	submitted := []domain.CourtOrderInput{
		{Text: ""},
		{ID: &unknown, Text: "Something"},
	}

	creates, updates := reconcileOrders(nil, submitted)
	assert.Empty(t, creates)
	assert.Empty(t, updates)
}

func TestReconcileOrdersSkipsInvalidImplementationStatus(t *testing.T) {
	bogus := "somewhat_done"
	submitted := []domain.CourtOrderInput{
		{Text: "Attend hearings", ImplementationStatus: &bogus},
	}

	creates, updates := reconcileOrders(nil, submitted)
	assert.Empty(t, creates)
	assert.Empty(t, updates)
}
