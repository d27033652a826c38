package importer

// amountMode determines how the amount is read from a row.
type amountMode int

const (
	// amountSingle is one column holding the spent amount.
	amountSingle amountMode = iota
	// amountDebit is a statement layout with separate debit and credit
	// columns. Only debits are expenses.
	amountDebit
)

// Profile describes the column layout of a CSV backup. Header matching
// ignores case and surrounding spaces.
type Profile struct {
	Name        string
	DateCol     string
	PayeeCol    string
	CategoryCol string // optional
	PayViaCol   string // optional
	AmountMode  amountMode
	AmountCol   string // used when AmountMode == amountSingle
	DebitCol    string // used when AmountMode == amountDebit
	CreditCol   string // used when AmountMode == amountDebit
}

func (p Profile) requiredCols() []string {
	cols := []string{p.DateCol, p.PayeeCol}

	switch p.AmountMode {
	case amountSingle:
		cols = append(cols, p.AmountCol)
	case amountDebit:
		cols = append(cols, p.DebitCol, p.CreditCol)
	}

	return cols
}

// profiles are tried in order; more specific layouts come first.
var profiles = []Profile{
	{
		Name:        "export",
		DateCol:     "date",
		PayeeCol:    "payee",
		CategoryCol: "category",
		PayViaCol:   "paidvia",
		AmountMode:  amountSingle,
		AmountCol:   "amount",
	},
	{
		Name:        "local",
		DateCol:     "date",
		PayeeCol:    "payto",
		CategoryCol: "category",
		PayViaCol:   "payvia",
		AmountMode:  amountSingle,
		AmountCol:   "amount",
	},
	{
		Name:       "statement",
		DateCol:    "date",
		PayeeCol:   "description",
		AmountMode: amountDebit,
		DebitCol:   "debit",
		CreditCol:  "credit",
	},
}
