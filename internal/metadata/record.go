package metadata

import "token-metadata-cli/internal/domain"

// NewRecord builds the record for a freshly created metadata account.
// Creators, collection and uses are always absent.
func NewRecord(name, symbol, uri string, sellerFeeBasisPoints uint16, isMutable bool) domain.Record {
	return domain.Record{
		Name:                 name,
		Symbol:               symbol,
		URI:                  uri,
		SellerFeeBasisPoints: sellerFeeBasisPoints,
		IsMutable:            isMutable,
	}
}

// Overrides holds the fields an update may change. Nil means keep.
type Overrides struct {
	Name   *string
	Symbol *string
	URI    *string
}

// Empty reports whether no field is overridden.
func (o Overrides) Empty() bool {
	return o.Name == nil && o.Symbol == nil && o.URI == nil
}

// Merge returns existing with the supplied overrides applied. Fields that are
// not overridden keep their on-chain value byte for byte, padding included;
// royalty, creators, collection, uses and mutability are never touched.
func Merge(existing domain.Record, o Overrides) domain.Record {
	merged := existing
	if o.Name != nil {
		merged.Name = *o.Name
	}
	if o.Symbol != nil {
		merged.Symbol = *o.Symbol
	}
	if o.URI != nil {
		merged.URI = *o.URI
	}
	return merged
}
