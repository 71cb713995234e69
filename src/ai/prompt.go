// backend/src/ai/prompt.go
package ai

import (
	"unicode/utf8"

	"github.com/username/financetrackr/backend/src/logger"
)

// The instruction template is fixed. It tells the model to skip balance
// markers, classify transaction direction, keep digit-grouping commas intact
// and answer with nothing but the JSON object described below.
const promptHeader = `You are a financial data extraction expert. I have extracted text from a bank statement PDF.

Please analyze this extracted text and format it into structured transaction data.

IMPORTANT RULES:
1. EXCLUDE transactions that represent balances (like "B/F", "Balance Forward", "Opening Balance", "Closing Balance")
2. ONLY include actual transactions (deposits, withdrawals, transfers, payments)
3. Extract ALL account information visible in the statement including:
   - Primary account number and balance
   - Any secondary/linked accounts (like PPF accounts, Savings accounts, etc.) with their numbers and balances
   - Account types and registration status if available
4. Use the latest/closing balance as the account balance in accountInfo

TRANSACTION TYPE CLASSIFICATION:
- "Deposit" or "Credit" or amount shown as positive or "Cr" = Classify as "Deposit" (income)
- "Withdrawal" or "Debit" or amount shown as negative or "Dr" = Classify as "Withdrawal" (expense)
- If unclear, look at the description: deposits add money (Salary, Refund, Transfer In), withdrawals remove money (ATM, Payment, Transfer Out, etc.)

For each transaction found, extract:
1. Date (in DD/MM/YYYY or MM/DD/YYYY format)
2. Description (what the transaction is for - keep it concise)
3. Amount (PRESERVE COMMAS - e.g., 10,000.50 or 1,50,000.00 - do NOT remove commas)
4. Type ("Deposit" for credits/income, "Withdrawal" for debits/expenses)

CRITICAL: When extracting amounts, keep ALL commas exactly as shown in the text.
- If you see "10,000" write "10,000" NOT "10"
- If you see "1,50,000.50" write "1,50,000.50" NOT "150000.50"
- Do NOT remove commas or reformat numbers

Also extract comprehensive account information:
- Primary Account number and closing balance
- Bank name
- Statement period
- Secondary/linked accounts (if any)

Return the results as a JSON object with this exact structure:
{
    "accountInfo": {
        "accountNumber": "primary account number",
        "bankName": "bank name",
        "statementPeriod": "period shown on statement",
        "primaryBalance": "primary account closing balance",
        "linkedAccounts": [
            {
                "name": "account type (e.g., PPF A/c, Savings A/c)",
                "accountNumber": "XXXXXXXX9308",
                "balance": "56551.00",
                "status": "Registered or other status if shown"
            }
        ]
    },
    "statementPeriod": "period shown on statement",
    "transactions": [
        {
            "date": "DD/MM/YYYY",
            "description": "transaction description",
            "amount": "numeric amount without currency",
            "type": "Deposit or Withdrawal"
        }
    ],
    "summary": {
        "totalCredits": "sum of all deposits/credits (EXCLUDE opening balance)",
        "totalDebits": "sum of all withdrawals/debits (EXCLUDE opening balance)",
        "closingBalance": "closing balance at end of statement",
        "transactionCount": "count of actual transactions (EXCLUDE opening balance)"
    },
    "extractionQuality": {
        "confidence": "high/medium/low",
        "notes": "any issues or notes"
    }
}

CRITICAL RULES:
- NEVER include "B/F", "Balance Forward", "Opening Balance", "Closing Balance" as transactions
- ALWAYS classify as "Deposit" (income) or "Withdrawal" (expense) - not "Debit" or "Credit"
- Look at context to determine direction: money in = Deposit, money out = Withdrawal
- Include only actual transactions, not balance markers

EXTRACTED PDF TEXT:
---BEGIN TEXT---
`

const promptFooter = `
---END TEXT---

Please analyze and format this as JSON. Return ONLY valid JSON, no explanations.`

// BuildPrompt embeds the extracted statement text into the instruction
// template. Text beyond maxLen characters is cut off before embedding; the
// model budget is finite and statements past that point are boilerplate more
// often than transactions.
func BuildPrompt(text string, maxLen int) string {
	if maxLen > 0 {
		if cut := truncateRunes(text, maxLen); len(cut) < len(text) {
			logger.L.Warn("Extracted text exceeds prompt budget, truncating",
				"chars", utf8.RuneCountInString(text), "limit", maxLen)
			text = cut
		}
	}
	return promptHeader + text + promptFooter
}

// truncateRunes cuts s after maxRunes characters. The budget counts runes,
// not bytes, so multi-byte statements get the full allowance and the cut
// never lands inside a rune.
func truncateRunes(s string, maxRunes int) string {
	count := 0
	for i := range s {
		if count == maxRunes {
			return s[:i]
		}
		count++
	}
	return s
}
