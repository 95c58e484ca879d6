package reporting

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"token-metadata-cli/internal/domain"
)

// Public cluster endpoints and the explorer cluster parameter each maps to.
var knownClusters = map[string]string{
	"api.devnet.solana.com":       "devnet",
	"api.testnet.solana.com":      "testnet",
	"api.mainnet-beta.solana.com": "",
}

const explorerTxURL = "https://explorer.solana.com/tx/"

// Reporter prints human-readable progress for one operation.
type Reporter struct {
	w io.Writer
}

// NewReporter creates a Reporter writing to w.
func NewReporter(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// CreateSummary describes a create before it is sent.
type CreateSummary struct {
	Mint     string
	Metadata string
	Record   domain.Record
}

// UpdateSummary describes an update before it is sent.
type UpdateSummary struct {
	Mint     string
	Metadata string
	Old      domain.Record
	New      domain.Record
}

// Header prints the endpoint and the signing wallet.
func (r *Reporter) Header(endpoint, wallet string) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Using RPC:    %s\n", endpoint))
	sb.WriteString(fmt.Sprintf("Using wallet: %s\n\n", wallet))
	r.write(sb.String())
}

// Create prints the fields a create will write.
func (r *Reporter) Create(s CreateSummary) {
	var sb strings.Builder
	sb.WriteString("Creating metadata...\n")
	sb.WriteString(fmt.Sprintf("  Mint:         %s\n", s.Mint))
	sb.WriteString(fmt.Sprintf("  Metadata PDA: %s\n", s.Metadata))
	sb.WriteString(fmt.Sprintf("  Name:         %s\n", s.Record.Name))
	sb.WriteString(fmt.Sprintf("  Symbol:       %s\n", s.Record.Symbol))
	sb.WriteString(fmt.Sprintf("  URI:          %s\n", orEmpty(s.Record.URI)))
	sb.WriteString(fmt.Sprintf("  Mutable:      %t\n", s.Record.IsMutable))
	sb.WriteString(fmt.Sprintf("  Seller fee:   %d bps\n", s.Record.SellerFeeBasisPoints))
	r.write(sb.String())
}

// Update prints old -> new for every field an update may change.
func (r *Reporter) Update(s UpdateSummary) {
	var sb strings.Builder
	sb.WriteString("Updating metadata...\n")
	sb.WriteString(fmt.Sprintf("  Mint:         %s\n", s.Mint))
	sb.WriteString(fmt.Sprintf("  Metadata PDA: %s\n", s.Metadata))
	sb.WriteString(fmt.Sprintf("  Name:         %s -> %s\n", domain.TrimPadding(s.Old.Name), domain.TrimPadding(s.New.Name)))
	sb.WriteString(fmt.Sprintf("  Symbol:       %s -> %s\n", domain.TrimPadding(s.Old.Symbol), domain.TrimPadding(s.New.Symbol)))
	sb.WriteString(fmt.Sprintf("  URI:          %s -> %s\n", domain.TrimPadding(s.Old.URI), domain.TrimPadding(s.New.URI)))
	r.write(sb.String())
}

// Success prints the landed signature and its explorer link.
// action is the past participle shown to the user ("created", "updated").
func (r *Reporter) Success(action, signature, endpoint string) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("\nMetadata %s successfully!\n", action))
	sb.WriteString(fmt.Sprintf("  Signature: %s\n", signature))
	sb.WriteString(fmt.Sprintf("  Explorer:  %s\n", ExplorerURL(signature, endpoint)))
	r.write(sb.String())
}

func (r *Reporter) write(s string) {
	// Write errors are ignored.
	_, _ = io.WriteString(r.w, s)
}

// ExplorerURL links a transaction on the Solana explorer for the cluster
// behind endpoint. Unknown endpoints use the explorer's custom cluster mode.
func ExplorerURL(signature, endpoint string) string {
	link := explorerTxURL + signature

	host := endpoint
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		host = u.Hostname()
	}
	if cluster, ok := knownClusters[host]; ok {
		if cluster == "" {
			return link
		}
		return link + "?cluster=" + cluster
	}
	return link + "?cluster=custom&customUrl=" + url.QueryEscape(endpoint)
}

func orEmpty(s string) string {
	if s == "" {
		return "(empty)"
	}
	return s
}
