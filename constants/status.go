package constants

// ExtractionStatus is the outcome of one run of the extraction pipeline.
type ExtractionStatus string

const (
	ExtractionOK       ExtractionStatus = "OK"       // structured fields extracted
	ExtractionDegraded ExtractionStatus = "DEGRADED" // fallback draft, needs manual review
)

// Merchant placeholders written into drafts.
const (
	ScanFailedMerchant = "Scan Failed"
	UnknownMerchant    = "Unknown"
)
