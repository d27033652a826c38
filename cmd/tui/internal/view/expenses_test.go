package view

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/spendly/internal/expense"
	"github.com/MrJamesThe3rd/spendly/internal/expenselist"
	"github.com/MrJamesThe3rd/spendly/internal/remote"
)

var (
	testSess = expense.Session{Token: "tok", UserID: "uid"}
	testNow  = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
)

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newLoadedExpenses(t *testing.T, store *expense.MockStore) ExpensesModel {
	t.Helper()

	store.EXPECT().ListExpenses(gomock.Any(), testSess).Return([]expense.Record{
		{ID: "c", Amount: "30", PayTo: "Cinema", Category: expense.CategoryEntertainment, Date: testNow.Add(-time.Hour)},
		{ID: "b", Amount: "20", PayTo: "Grocer", Category: expense.CategoryFoodDrinks, Date: testNow.Add(-48 * time.Hour)},
	}, nil)

	ctrl := expenselist.New(store, testSess, expenselist.WithClock(func() time.Time { return testNow }))
	require.NoError(t, ctrl.Load(context.Background()))

	m := NewExpensesModel(ctrl)
	m.now = func() time.Time { return testNow }

	next, _ := m.Update(listSyncedMsg{})

	return next.(ExpensesModel)
}

func TestExpensesModel_DeleteFailureRestoresRow(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := expense.NewMockStore(ctrl)
	m := newLoadedExpenses(t, store)

	require.Len(t, m.table.Rows(), 2)

	next, _ := m.Update(key("d"))
	m = next.(ExpensesModel)

	assert.Equal(t, expensesStateConfirmDelete, m.state)
	assert.Equal(t, "c", m.snap.PendingDelete)
	assert.Equal(t, "✗ Cinema", m.table.Rows()[0][1])
	assert.Contains(t, m.View(), "Delete ₹30.00 to Cinema")

	failure := &remote.RemoteError{Op: "delete expense", StatusCode: 500}
	store.EXPECT().DeleteExpense(gomock.Any(), testSess, "c").Return(failure)

	next, cmd := m.Update(key("y"))
	m = next.(ExpensesModel)
	require.NotNil(t, cmd)

	assert.Equal(t, expensesStateBrowse, m.state)
	require.Len(t, m.table.Rows(), 1)
	assert.Equal(t, "Grocer", m.table.Rows()[0][1])

	msg := cmd()
	require.IsType(t, deletedMsg{}, msg)

	next, _ = m.Update(msg)
	m = next.(ExpensesModel)

	assert.Equal(t, "Could not sync with the server. Please try again.", m.status)
	assert.NoError(t, m.ctrl.Snapshot().Err)
	require.Len(t, m.table.Rows(), 2)
	assert.Equal(t, "Cinema", m.table.Rows()[0][1])
	assert.Contains(t, m.View(), "Could not sync with the server.")
}

func TestExpensesModel_DeleteSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := expense.NewMockStore(ctrl)
	m := newLoadedExpenses(t, store)

	store.EXPECT().DeleteExpense(gomock.Any(), testSess, "c").Return(nil)

	next, _ := m.Update(key("d"))
	next, cmd := next.Update(key("y"))
	next, _ = next.Update(cmd())
	m = next.(ExpensesModel)

	assert.Empty(t, m.status)
	require.Len(t, m.table.Rows(), 1)
	assert.Equal(t, "Grocer", m.table.Rows()[0][1])
}

func TestExpensesModel_DeleteCancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := expense.NewMockStore(ctrl)
	m := newLoadedExpenses(t, store)

	next, _ := m.Update(key("d"))
	next, cmd := next.Update(key("n"))
	m = next.(ExpensesModel)

	assert.Nil(t, cmd)
	assert.Equal(t, expensesStateBrowse, m.state)
	assert.Empty(t, m.snap.PendingDelete)
	require.Len(t, m.table.Rows(), 2)
	assert.Equal(t, "Cinema", m.table.Rows()[0][1])
}
