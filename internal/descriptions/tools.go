package descriptions

// Tool descriptions shown to MCP clients

const (
	FilingExtractURLDescription = `Extract shareholder transactions from an SGX disclosure announcement.

**When to use:** You have a links.sgx.com announcement URL for a substantial shareholder, director/CEO or trustee-manager disclosure and need its transactions as data.

**What it returns:** The issuer symbol, the attached PDF URL and one record per disclosed holder: shareholder_name, transaction_type (buy, sell, award, transfer, others), transaction_date, number_of_stock, value, price_per_share, and the shares held before and after with their percentages.

**Examples:**
• "Extract the transactions in https://links.sgx.com/1.0.0/corporate-announcements/ABC123/xyz"
• "What did the substantial shareholder of this announcement buy?"

**Notes:** Filings that do not concern voting shares, or that have no disclosure sections, are reported as excluded rather than as errors. Foreign currency amounts are converted to SGD.`

	FilingExtractFileDescription = `Extract shareholder transactions from a local SGX disclosure PDF.

**When to use:** The filing PDF is already on disk, for example when re-checking a flagged record or testing a policy change.

**Parameters:** path to the PDF; symbol optionally sets the issuer symbol, otherwise it is looked up from the "Name of Listed Issuer" answer.

**What it returns:** The same records as filing_extract_url.`

	FilingListStoredDescription = `List transaction records saved by earlier batch runs.

**When to use:** To look up what has already been extracted and accepted for an issuer without fetching SGX again.

**Parameters:** symbol narrows to one issuer; limit caps the number of records (newest first).

**What it returns:** Stored records with the run id that last wrote them. Only records that passed review are stored.`
)
