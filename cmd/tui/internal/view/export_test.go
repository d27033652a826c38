package view

import (
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/spendly/internal/expense"
	"github.com/MrJamesThe3rd/spendly/internal/export"
)

func TestExportModel_PreviewThenWrite(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := expense.NewMockStore(ctrl)

	store.EXPECT().ListExpenses(gomock.Any(), testSess).Return([]expense.Record{
		{ID: "b", Amount: "20", PayTo: "Grocer", Category: expense.CategoryFoodDrinks, Date: testNow.Add(-48 * time.Hour)},
		{ID: "c", Amount: "30", PayTo: "Cinema", Category: expense.CategoryEntertainment, Date: testNow.Add(-time.Hour)},
	}, nil)

	dir := t.TempDir()
	m := NewExportModel(export.NewService(store), testSess, dir)
	r := TimeframeAll.Range(testNow)

	next, cmd := m.Update(TimeframeSelectedMsg{Range: r})
	m = next.(ExportModel)
	require.NotNil(t, cmd)
	assert.Equal(t, exportSelecting, m.step)

	next, _ = m.Update(m.selectCmd(r)())
	m = next.(ExportModel)

	require.Equal(t, exportPreview, m.step)
	require.Len(t, m.records, 2)
	assert.Equal(t, "c", m.records[0].ID)

	view := m.View()
	assert.Contains(t, view, "2 expenses | Total ₹50.00")
	assert.Contains(t, view, "Entertainment")
	assert.Contains(t, view, "Write 2 expenses to CSV?")

	next, _ = m.Update(saveFileCmd(m.records, m.span, m.fields.dir)())
	m = next.(ExportModel)

	require.Equal(t, exportDone, m.step)
	require.NoError(t, m.err)
	assert.True(t, strings.HasPrefix(m.file, dir))
	assert.Contains(t, m.View(), "Wrote 2 expenses")

	content, err := os.ReadFile(m.file)
	require.NoError(t, err)
	assert.Equal(t, "Date,Payee,Category,Amount,PaidVia\n"+
		"2026-10-14,Cinema,Entertainment,30,Cash\n"+
		"2026-10-12,Grocer,Food & Drinks,20,Cash\n", string(content))
}

func TestExportModel_EmptyRange(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := expense.NewMockStore(ctrl)
	store.EXPECT().ListExpenses(gomock.Any(), testSess).Return(nil, nil)

	m := NewExportModel(export.NewService(store), testSess, t.TempDir())
	r := TimeframeAll.Range(testNow)

	next, _ := m.Update(TimeframeSelectedMsg{Range: r})
	next, _ = next.Update(next.(ExportModel).selectCmd(r)())
	m = next.(ExportModel)

	assert.Equal(t, exportPreview, m.step)
	assert.Contains(t, m.View(), "Nothing to export in this range.")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, exportPreview, next.(ExportModel).step)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, exportPickRange, next.(ExportModel).step)
}
