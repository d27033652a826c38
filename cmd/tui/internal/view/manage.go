package view

import (
	"errors"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/MrJamesThe3rd/spendly/internal/expense"
)

const dateLayout = "2006-01-02"

type manageFields struct {
	amount   string
	payTo    string
	category expense.Category
	date     string
	payVia   string
}

// ManageModel is the add/edit form. Editing starts from an existing record
// and submits only the fields that changed.
type ManageModel struct {
	orig   *expense.Record
	now    func() time.Time
	fields *manageFields
	form   *huh.Form
}

func NewManageModel(orig *expense.Record, now func() time.Time) ManageModel {
	f := &manageFields{
		category: expense.CategoryFoodDrinks,
		date:     FormatDate(now()),
		payVia:   expense.DefaultPayVia,
	}

	if orig != nil {
		f.amount = orig.Amount
		f.payTo = orig.PayTo
		f.category = orig.Category
		f.date = FormatDate(orig.Date)
		f.payVia = orig.PaymentMethod()
	}

	m := ManageModel{orig: orig, now: now, fields: f}
	m.form = m.buildForm()

	return m
}

func (m ManageModel) Editing() bool {
	return m.orig != nil
}

func validateAmountInput(s string) error {
	d, err := expense.ParseAmount(s)
	if err != nil {
		return errors.New("amount must be a number")
	}

	if !d.IsPositive() {
		return errors.New("amount must be greater than zero")
	}

	return nil
}

func validateDateInput(s string) error {
	if _, err := time.Parse(dateLayout, strings.TrimSpace(s)); err != nil {
		return errors.New("date must be YYYY-MM-DD")
	}

	return nil
}

func categoryOptions(current expense.Category) []huh.Option[expense.Category] {
	opts := make([]huh.Option[expense.Category], 0, len(expense.Categories)+1)
	for _, c := range expense.Categories {
		opts = append(opts, huh.NewOption(string(c), c))
	}

	// Records written by older versions may carry a label outside the set.
	if current != "" && expense.Canonicalize(string(current)) != current {
		opts = append(opts, huh.NewOption(string(current), current))
	}

	return opts
}

func (m ManageModel) buildForm() *huh.Form {
	title := "Add Expense"
	if m.Editing() {
		title = "Edit Expense"
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("amount").
				Title(title).
				Description("Amount").
				Placeholder("0.00").
				Value(&m.fields.amount).
				Validate(validateAmountInput),

			huh.NewInput().
				Key("payTo").
				Title("Paid to").
				Value(&m.fields.payTo).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("payee cannot be empty")
					}

					return nil
				}),

			huh.NewSelect[expense.Category]().
				Key("category").
				Title("Category").
				Options(categoryOptions(m.fields.category)...).
				Value(&m.fields.category),

			huh.NewInput().
				Key("date").
				Title("Date").
				Placeholder(dateLayout).
				Value(&m.fields.date).
				Validate(validateDateInput),

			huh.NewInput().
				Key("payVia").
				Title("Paid via").
				Value(&m.fields.payVia),
		),
	).WithWidth(45).WithShowHelp(false)
}

func (m ManageModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m ManageModel) Update(msg tea.Msg) (ManageModel, tea.Cmd) {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	return m, cmd
}

// Done reports whether the form has been submitted.
func (m ManageModel) Done() bool {
	return m.form.State == huh.StateCompleted
}

func (m ManageModel) View() string {
	return m.form.View()
}

// Record builds the record the form describes.
func (m ManageModel) Record() expense.Record {
	f := m.fields

	return expense.Record{
		Amount:   strings.TrimSpace(f.amount),
		PayTo:    strings.TrimSpace(f.payTo),
		Category: f.category,
		Date:     m.resolveDate(f.date),
		PayVia:   strings.TrimSpace(f.payVia),
	}
}

// Patch returns the changes made to the edited record.
func (m ManageModel) Patch() expense.Patch {
	if m.orig == nil {
		return expense.Patch{}
	}

	return changes(*m.orig, m.Record())
}

// resolveDate keeps the original timestamp when the day is unchanged, and
// otherwise puts the chosen day at the current clock time so same-day
// entries still order by creation.
func (m ManageModel) resolveDate(text string) time.Time {
	text = strings.TrimSpace(text)

	if m.orig != nil && text == FormatDate(m.orig.Date) {
		return m.orig.Date
	}

	now := m.now()

	day, err := time.ParseInLocation(dateLayout, text, now.Location())
	if err != nil {
		return now
	}

	return time.Date(day.Year(), day.Month(), day.Day(),
		now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), now.Location())
}

func changes(orig, rec expense.Record) expense.Patch {
	var p expense.Patch

	if rec.Amount != orig.Amount {
		p.Amount = new(rec.Amount)
	}

	if rec.PayTo != orig.PayTo {
		p.PayTo = new(rec.PayTo)
	}

	if rec.Category != orig.Category {
		p.Category = new(rec.Category)
	}

	if !rec.Date.Equal(orig.Date) {
		p.Date = new(rec.Date)
	}

	if rec.PayVia != orig.PaymentMethod() {
		p.PayVia = new(rec.PayVia)
	}

	return p
}
