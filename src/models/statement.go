// backend/src/models/statement.go
package models

import "encoding/json"

// Transaction type literals the AI is instructed to emit.
const (
	TransactionTypeDeposit    = "Deposit"
	TransactionTypeWithdrawal = "Withdrawal"
)

// ParsedStatement is the top-level structure the AI returns for a bank
// statement. Every field is best-effort: the model may omit keys or leave
// values empty, so nothing here is validated or normalized server-side. The
// API responds with the model's JSON verbatim; these types document the shape
// and back the tests.
type ParsedStatement struct {
	AccountInfo       AccountInfo       `json:"accountInfo"`
	StatementPeriod   string            `json:"statementPeriod"`
	Transactions      []Transaction     `json:"transactions"`
	Summary           Summary           `json:"summary"`
	ExtractionQuality ExtractionQuality `json:"extractionQuality"`
}

// AccountInfo carries the account metadata found on the statement. All fields
// are free-form strings exactly as the AI produced them.
type AccountInfo struct {
	AccountNumber   string          `json:"accountNumber"`
	BankName        string          `json:"bankName"`
	StatementPeriod string          `json:"statementPeriod"`
	PrimaryBalance  string          `json:"primaryBalance"`
	LinkedAccounts  []LinkedAccount `json:"linkedAccounts"`
}

// LinkedAccount is a secondary account listed on the statement (PPF, savings,
// fixed deposit and similar).
type LinkedAccount struct {
	Name          string `json:"name"`
	AccountNumber string `json:"accountNumber"`
	Balance       string `json:"balance"`
	Status        string `json:"status"`
}

// Transaction is a single statement line. Date stays in whatever format the
// statement used (DD/MM/YYYY or MM/DD/YYYY); Amount keeps its digit-grouping
// separators verbatim ("1,50,000.50" stays "1,50,000.50").
type Transaction struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Type        string `json:"type"`
}

// Summary aggregates the statement totals. TransactionCount is raw because
// the model emits it sometimes as a string and sometimes as a number.
type Summary struct {
	TotalCredits     string          `json:"totalCredits"`
	TotalDebits      string          `json:"totalDebits"`
	ClosingBalance   string          `json:"closingBalance"`
	TransactionCount json.RawMessage `json:"transactionCount,omitempty"`
}

// ExtractionQuality is the model's self-assessment. Confidence is
// "high"/"medium"/"low" by convention, not enforced.
type ExtractionQuality struct {
	Confidence string `json:"confidence"`
	Notes      string `json:"notes"`
}
